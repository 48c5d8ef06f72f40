package nix

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	assert.Equal(t, DefaultDatabase, cfg.Database)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel.Level())
	assert.Equal(t, DefaultStartupTimeout, cfg.StartupTimeout)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)

	require.NotNil(t, cfg.Discord)
	assert.Equal(t, DefaultDiscordGatewayIntent, cfg.Discord.GatewayIntents)
	assert.Equal(t, DefaultDiscordCustomStatus, cfg.Discord.CustomStatus)
	assert.Equal(
		t,
		slog.LevelWarn,
		cfg.Discord.DiscordGoLogLevel.Level(),
	)

	require.NotNil(t, cfg.Trivia)
	assert.Equal(t, DefaultTriviaURL, cfg.Trivia.URL)
	assert.Equal(t, DefaultTriviaDifficulty, cfg.Trivia.Difficulty)
	assert.Equal(t, DefaultTriviaSessionTimeout, cfg.Trivia.SessionTimeout)
	assert.Equal(t, TriviaWinThreshold, cfg.Trivia.WinThreshold)

	require.NotNil(t, cfg.Facts)
	assert.Equal(t, DefaultFactsURL, cfg.Facts.URL)
	assert.Equal(
		t,
		DefaultFactBroadcastInterval,
		cfg.Facts.BroadcastInterval,
	)

	require.NotNil(t, cfg.Quotes)
	assert.Equal(t, DefaultQuotesURL, cfg.Quotes.URL)

	require.NotNil(t, cfg.Reddit)
	assert.Equal(t, DefaultRedditPostLimit, cfg.Reddit.PostLimit)
	assert.Equal(t, DefaultRedditUserAgent, cfg.Reddit.UserAgent)

	require.NotNil(t, cfg.API)
	assert.Equal(t, DefaultAPIListen, cfg.API.Listen)
}
