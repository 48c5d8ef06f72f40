package nix

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// API serves the bot's status/health endpoints.
type API struct {
	config *APIConfig
	logger *slog.Logger
	nix    *Nix
	server *http.Server
}

func newAPI(config *APIConfig, n *Nix, logger *slog.Logger) *API {
	a := &API{
		config: config,
		logger: logger.With(loggerNameKey, "api"),
		nix:    n,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), a.logMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(config.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = config.CORSAllowOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	engine.Use(cors.New(corsConfig))

	engine.GET("/health", a.getHealth)
	engine.GET("/api/status", a.getStatus)
	engine.POST("/api/quit", a.postQuit)

	a.server = &http.Server{
		Addr:         config.Listen,
		Handler:      engine,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return a
}

// Serve runs the API server until it fails or is shut down.
func (a *API) Serve(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting api", "listen", a.config.Listen)
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the API server.
func (a *API) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

func (a *API) logMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.logger.Info(
			"request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

func (a *API) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *API) getStatus(c *gin.Context) {
	c.JSON(
		http.StatusOK,
		gin.H{
			"version":           Version,
			"commit":            CommitSHA,
			"build_time":        BuildTime,
			"uptime":            time.Since(a.nix.startedAt).String(),
			"discord_connected": a.nix.discord.connected.Load(),
			"trivia_sessions":   a.nix.trivia.Len(),
			"messages_handled":  a.nix.messagesHandled.Load(),
		},
	)
}

func (a *API) postQuit(c *gin.Context) {
	a.logger.Warn("quit requested via api")
	a.nix.Stop()
	c.JSON(http.StatusAccepted, gin.H{"status": "stopping"})
}
