package nix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

var (
	// When building, set these like:
	// -ldflags "-X github.com/StanleyRoberts/WatchingRaccoonsBot/nix.Version=$$(date +'%Y%m%d')"

	Version   = "dev"
	CommitSHA = "unknown"
	BuildTime = "unknown"
)

// Nix is the main application struct: it wires together the Discord
// integration, the trivia engine, the content clients, the database
// and the status API.
type Nix struct {
	config *Config

	// Standard logger. Subsystems derive their own loggers with their
	// own levels from the same writer.
	logger     *slog.Logger
	logHandler slog.Handler

	db      *gorm.DB
	writeDB *database

	// Handles discord integration and rendering
	discord *Discord

	// Active trivia sessions, keyed by channel
	trivia *TriviaRegistry

	facts  *FactsClient
	quotes *QuoteClient
	reddit *RedditClient

	// chat generates replies to messages mentioning the bot; nil when
	// no OpenAI token is configured
	chat *ChatClient

	// Provides the status/health API
	api *API

	// factLimiter paces the daily fact broadcast so a bot in many
	// guilds doesn't burst into Discord rate limits
	factLimiter *rate.Limiter

	// signalStop enables an explicit stop signal to be sent to the
	// bot, such as by the `/api/quit` endpoint
	signalStop chan struct{}

	// signalReady has a value sent on it once Run has finished
	// initializing: database open, discord session open, commands
	// registered, API listening
	signalReady chan struct{}

	// eventShutdown is closed when shutdown has finished
	eventShutdown chan struct{}

	// prevents Run from executing concurrently
	runMu sync.Mutex

	// The time Run was called
	startedAt time.Time

	messagesHandled atomic.Int64
}

// New creates a Nix bot from the given config. The bot doesn't touch
// the network until Run is called.
func New(config *Config) (*Nix, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Discord == nil || config.Discord.Token == "" {
		return nil, errors.New("discord token not set")
	}
	if config.Discord.ApplicationID == "" {
		return nil, errors.New("discord application ID not set")
	}

	logHandler := newLogHandler(config.LogLevel)
	logger := slog.New(logHandler)

	n := &Nix{
		config:     config,
		logger:     logger,
		logHandler: logHandler,
		facts: NewFactsClient(
			config.Facts,
			slog.New(newLogHandler(config.LogLevel)),
		),
		quotes: NewQuoteClient(
			config.Quotes,
			slog.New(newLogHandler(config.LogLevel)),
		),
		factLimiter: rate.NewLimiter(
			rate.Limit(config.Facts.BroadcastPerSecond),
			1,
		),
		signalStop:    make(chan struct{}, 1),
		signalReady:   make(chan struct{}, 1),
		eventShutdown: make(chan struct{}, 1),
	}

	if config.Chat != nil && config.Chat.Token != "" {
		n.chat = NewChatClient(
			config.Chat,
			slog.New(newLogHandler(config.LogLevel)),
		)
	} else {
		logger.Info("no openai token set, mention replies disabled")
	}

	reddit, err := NewRedditClient(
		config.Reddit,
		slog.New(newLogHandler(config.LogLevel)),
	)
	if err != nil {
		return nil, err
	}
	n.reddit = reddit

	n.discord = newDiscord(
		config.Discord,
		slog.New(newLogHandler(config.Discord.LogLevel)),
	)
	n.discord.nix = n

	// recorder is attached in Run, once the database is open
	n.trivia = NewTriviaRegistry(
		config.Trivia,
		n.discord,
		nil,
		logger,
	)

	n.api = newAPI(
		config.API,
		n,
		slog.New(newLogHandler(config.API.LogLevel)),
	)
	return n, nil
}

// Run starts the bot and blocks until ctx is cancelled or an explicit
// stop signal arrives, then shuts down gracefully.
func (n *Nix) Run(ctx context.Context) error {
	n.runMu.Lock()
	defer n.runMu.Unlock()
	n.startedAt = time.Now()

	startupCtx, startupCancel := context.WithTimeout(
		ctx,
		n.config.StartupTimeout,
	)
	defer startupCancel()

	db, err := CreateDB(
		startupCtx,
		n.config.Database,
		newLogHandler(n.config.DatabaseLogLevel),
		n.config.DatabaseSlowThreshold,
	)
	if err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}
	n.db = db
	n.writeDB = newDatabase(db)
	n.trivia.recorder = n.writeDB

	if n.discord.session == nil {
		session, e := n.discord.newSession(
			newLogHandler(n.config.Discord.DiscordGoLogLevel),
		)
		if e != nil {
			return e
		}
		n.discord.session = session
	}

	n.discord.discordgoRemoveHandlerFuncs = []func(){
		n.discord.session.AddHandler(n.discord.handlerReady(ctx)),
		n.discord.session.AddHandler(n.discord.handlerConnect(ctx)),
		n.discord.session.AddHandler(n.discord.handlerDisconnect(ctx)),
		n.discord.session.AddHandler(
			n.discord.handlerInteractionCreate(ctx),
		),
		n.discord.session.AddHandler(n.discord.handlerMessageCreate(ctx)),
	}

	if err = n.discord.session.Open(); err != nil {
		return fmt.Errorf("error opening discord session: %w", err)
	}

	if err = n.discord.registerCommands(startupCtx); err != nil {
		_ = n.discord.session.Close()
		return err
	}

	apiErrCh := make(chan error, 1)
	go func() {
		apiErrCh <- n.api.Serve(ctx)
	}()

	go n.runFactBroadcast(ctx)

	n.logger.InfoContext(
		ctx,
		"bot is ready",
		"version", Version,
		"commit", CommitSHA,
	)
	n.signalReady <- struct{}{}

	select {
	case <-ctx.Done():
		n.logger.Info("context cancelled, shutting down")
	case <-n.signalStop:
		n.logger.Info("received stop signal, shutting down")
	case err = <-apiErrCh:
		n.logger.Error("api server failed", tint.Err(err))
	}
	n.shutdown()
	return nil
}

// Stop signals a running bot to shut down.
func (n *Nix) Stop() {
	select {
	case n.signalStop <- struct{}{}:
	default:
	}
}

func (n *Nix) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		n.config.ShutdownTimeout,
	)
	defer cancel()

	n.trivia.StopAll(shutdownCtx)

	for _, removeHandler := range n.discord.discordgoRemoveHandlerFuncs {
		removeHandler()
	}
	if err := n.discord.session.Close(); err != nil {
		n.logger.Warn("error closing discord session", tint.Err(err))
	}
	if err := n.api.Shutdown(shutdownCtx); err != nil {
		n.logger.Warn("error shutting down api", tint.Err(err))
	}

	sqlDB, err := n.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}

	n.eventShutdown <- struct{}{}
}

// runFactBroadcast periodically posts a random fact to every guild's
// configured fact channel.
func (n *Nix) runFactBroadcast(ctx context.Context) {
	if n.config.Facts.BroadcastInterval <= 0 {
		n.logger.Info("daily fact broadcast disabled")
		return
	}
	ticker := time.NewTicker(n.config.Facts.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.broadcastFact(ctx)
		}
	}
}

func (n *Nix) broadcastFact(ctx context.Context) {
	channelIDs, err := n.writeDB.FactChannels(ctx)
	if err != nil {
		n.logger.ErrorContext(
			ctx,
			"error loading fact channels",
			tint.Err(err),
		)
		return
	}
	if len(channelIDs) == 0 {
		return
	}

	fact, err := n.facts.Fact(ctx)
	if err != nil {
		n.logger.ErrorContext(ctx, "error fetching fact", tint.Err(err))
		return
	}

	n.logger.InfoContext(
		ctx,
		"broadcasting daily fact",
		"channels", len(channelIDs),
	)
	for _, channelID := range channelIDs {
		if err = n.factLimiter.Wait(ctx); err != nil {
			return
		}
		if _, err = n.discord.session.ChannelMessageSend(
			channelID,
			fmt.Sprintf("__Daily fact__\n%s", fact),
		); err != nil {
			// likely missing permissions - skip the channel, don't
			// abort the broadcast
			n.logger.WarnContext(
				ctx,
				"failed to send fact message",
				"channel_id", channelID,
				tint.Err(err),
			)
		}
	}
}
