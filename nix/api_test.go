package nix

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) (*API, *Nix) {
	t.Helper()
	d, _ := newTestDiscord(func(string) []Question { return nil })
	bot := d.nix
	bot.config = DefaultConfig()
	bot.discord = d
	bot.startedAt = time.Now()
	bot.signalStop = make(chan struct{}, 1)
	api := newAPI(DefaultConfig().API, bot, slog.Default())
	return api, bot
}

func TestAPIHealth(t *testing.T) {
	t.Parallel()
	api, _ := newTestAPI(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	api.server.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAPIStatus(t *testing.T) {
	t.Parallel()
	api, bot := newTestAPI(t)
	bot.discord.connected.Store(true)
	bot.messagesHandled.Store(7)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	api.server.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var status struct {
		Version          string `json:"version"`
		DiscordConnected bool   `json:"discord_connected"`
		TriviaSessions   int    `json:"trivia_sessions"`
		MessagesHandled  int64  `json:"messages_handled"`
		Uptime           string `json:"uptime"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, Version, status.Version)
	assert.True(t, status.DiscordConnected)
	assert.Equal(t, 0, status.TriviaSessions)
	assert.Equal(t, int64(7), status.MessagesHandled)
	assert.NotEmpty(t, status.Uptime)
}

func TestAPIQuit(t *testing.T) {
	t.Parallel()
	api, bot := newTestAPI(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/quit", nil)
	api.server.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusAccepted, w.Code)

	select {
	case <-bot.signalStop:
	default:
		t.Fatal("expected a stop signal")
	}
}
