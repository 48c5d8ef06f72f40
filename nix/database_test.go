package nix

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *database {
	t.Helper()
	db, err := CreateDB(
		context.Background(),
		filepath.Join(t.TempDir(), "nix.sqlite3"),
		nil,
		DefaultDatabaseSlowThreshold,
	)
	require.NoError(t, err)
	return newDatabase(db)
}

func TestSetFactChannel(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.SetFactChannel(ctx, "guild-1", "chan-1"))

	var settings GuildSettings
	require.NoError(
		t,
		db.DB().WithContext(ctx).First(&settings, "guild_id = ?", "guild-1").Error,
	)
	assert.Equal(t, "chan-1", settings.FactChannelID)
	assert.Positive(t, settings.CreatedAt)

	// setting again upserts rather than erroring on the primary key
	require.NoError(t, db.SetFactChannel(ctx, "guild-1", "chan-2"))

	var count int64
	require.NoError(
		t,
		db.DB().WithContext(ctx).Model(&GuildSettings{}).Count(&count).Error,
	)
	assert.Equal(t, int64(1), count)
	require.NoError(
		t,
		db.DB().WithContext(ctx).First(&settings, "guild_id = ?", "guild-1").Error,
	)
	assert.Equal(t, "chan-2", settings.FactChannelID)
}

func TestClearFactChannel(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.SetFactChannel(ctx, "guild-1", "chan-1"))
	require.NoError(t, db.ClearFactChannel(ctx, "guild-1"))

	channels, err := db.FactChannels(ctx)
	require.NoError(t, err)
	assert.Empty(t, channels)

	// clearing a guild with no row is not an error
	require.NoError(t, db.ClearFactChannel(ctx, "guild-unknown"))
}

func TestFactChannels(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t)
	ctx := context.Background()

	channels, err := db.FactChannels(ctx)
	require.NoError(t, err)
	assert.Empty(t, channels)

	require.NoError(t, db.SetFactChannel(ctx, "guild-1", "chan-1"))
	require.NoError(t, db.SetFactChannel(ctx, "guild-2", "chan-2"))
	require.NoError(t, db.SetFactChannel(ctx, "guild-3", "chan-3"))
	require.NoError(t, db.ClearFactChannel(ctx, "guild-3"))

	channels, err = db.FactChannels(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"chan-1", "chan-2"}, channels)
}

func TestCreateTriviaOutcome(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t)
	ctx := context.Background()

	outcome := &TriviaOutcome{
		ChannelID:   "chan-1",
		GuildID:     "guild-1",
		WinnerID:    "player-1",
		WinnerScore: 5,
		Players:     2,
		Reason:      string(TriviaEndWon),
		StartedAt:   1724800000000,
		EndedAt:     1724800300000,
	}
	require.NoError(t, db.Create(ctx, outcome))
	assert.NotZero(t, outcome.ID)

	var loaded TriviaOutcome
	require.NoError(
		t,
		db.DB().WithContext(ctx).First(&loaded, outcome.ID).Error,
	)
	assert.Equal(t, "player-1", loaded.WinnerID)
	assert.Equal(t, string(TriviaEndWon), loaded.Reason)
	assert.Positive(t, loaded.CreatedAt)
}
