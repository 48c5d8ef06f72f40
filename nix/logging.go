package nix

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	gormlogger "gorm.io/gorm/logger"
)

const loggerNameKey = "logger"

type contextKey string

const loggerContextKey contextKey = "logger"

var defaultLogWriter io.Writer = os.Stdout

// newLogHandler creates the base tint handler used by all subsystem loggers.
func newLogHandler(level slog.Leveler) slog.Handler {
	return tint.NewHandler(
		defaultLogWriter,
		&tint.Options{
			Level:     level,
			AddSource: true,
		},
	)
}

// WithLogger returns a copy of ctx carrying the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// ContextLogger returns the logger carried by ctx, if any.
func ContextLogger(ctx context.Context) (*slog.Logger, bool) {
	logger, ok := ctx.Value(loggerContextKey).(*slog.Logger)
	return logger, ok
}

var discordgoLogLevels = map[int]slog.Level{
	discordgo.LogDebug:         slog.LevelDebug,
	discordgo.LogError:         slog.LevelError,
	discordgo.LogWarning:       slog.LevelWarn,
	discordgo.LogInformational: slog.LevelInfo,
}

// discordgoLoggerFunc bridges discordgo's printf-style logging onto slog.
func discordgoLoggerFunc(ctx context.Context, handler slog.Handler) func(
	msgL int,
	caller int,
	format string,
	args ...any,
) {
	log := slog.New(handler)
	return func(msgL int, _ int, format string, args ...any) {
		level, ok := discordgoLogLevels[msgL]
		if !ok {
			level = slog.LevelInfo
		}
		log.LogAttrs(
			ctx,
			level,
			strings.ReplaceAll(fmt.Sprintf(format, args...), "\n", ""),
		)
	}
}

// gormStructuredLogger adapts slog to the gorm logger interface.
type gormStructuredLogger struct {
	logger        *slog.Logger
	slowThreshold time.Duration
}

func newGormLogger(
	handler slog.Handler,
	slowThreshold time.Duration,
) *gormStructuredLogger {
	return &gormStructuredLogger{
		logger: slog.New(handler).With(
			slog.String(loggerNameKey, "database"),
		),
		slowThreshold: slowThreshold,
	}
}

func (g *gormStructuredLogger) LogMode(
	gormlogger.LogLevel,
) gormlogger.Interface {
	// level is controlled by the slog handler
	return g
}

func (g *gormStructuredLogger) Info(
	ctx context.Context,
	msg string,
	data ...any,
) {
	g.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
}

func (g *gormStructuredLogger) Warn(
	ctx context.Context,
	msg string,
	data ...any,
) {
	g.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
}

func (g *gormStructuredLogger) Error(
	ctx context.Context,
	msg string,
	data ...any,
) {
	g.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
}

func (g *gormStructuredLogger) Trace(
	ctx context.Context,
	begin time.Time,
	fc func() (sql string, rowsAffected int64),
	err error,
) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	attrs := []slog.Attr{
		slog.Duration("elapsed", elapsed),
		slog.String("sql", sql),
		slog.Int64("rows", rows),
	}

	switch {
	case err != nil:
		attrs = append(attrs, tint.Err(err))
		g.logger.LogAttrs(ctx, slog.LevelError, "query error", attrs...)
	case g.slowThreshold > 0 && elapsed > g.slowThreshold:
		attrs = append(
			attrs,
			slog.Duration("slow_threshold", g.slowThreshold),
		)
		g.logger.LogAttrs(ctx, slog.LevelWarn, "slow query", attrs...)
	default:
		g.logger.LogAttrs(ctx, slog.LevelDebug, "query", attrs...)
	}
}
