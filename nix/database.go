package nix

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ModelUnixTime provides create/update timestamps as unix milliseconds.
type ModelUnixTime struct {
	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

// GuildSettings stores per-guild configuration, such as the channel
// the daily fact broadcast posts to. A guild with no row (or an empty
// FactChannelID) doesn't receive daily facts.
type GuildSettings struct {
	ModelUnixTime
	GuildID       string `gorm:"primaryKey" json:"guild_id"`
	FactChannelID string `json:"fact_channel_id"`
}

// TriviaOutcome records the result of a finished trivia game. This is
// history only - live game state is never persisted, and is lost on
// restart by design.
type TriviaOutcome struct {
	ModelUnixTime
	ID          uint   `gorm:"primaryKey" json:"id"`
	ChannelID   string `gorm:"index" json:"channel_id"`
	GuildID     string `json:"guild_id"`
	WinnerID    string `json:"winner_id"`
	WinnerScore int    `json:"winner_score"`
	Players     int    `json:"players"`
	Reason      string `json:"reason"`
	StartedAt   int64  `json:"started_at"`
	EndedAt     int64  `json:"ended_at"`
}

// CreateDB opens (creating if necessary) the sqlite database at the
// given path and runs migrations.
func CreateDB(
	ctx context.Context,
	path string,
	handler slog.Handler,
	slowThreshold time.Duration,
) (*gorm.DB, error) {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	db, err := gorm.Open(
		sqlite.Open(path),
		&gorm.Config{
			Logger: newGormLogger(handler, slowThreshold),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = db.WithContext(ctx).AutoMigrate(
		&GuildSettings{},
		&TriviaOutcome{},
	); err != nil {
		return nil, fmt.Errorf("error migrating database: %w", err)
	}
	return db, nil
}

// database wraps a gorm.DB, serializing writes with a mutex. SQLite
// only supports a single writer, so concurrent writes otherwise
// surface as SQLITE_BUSY errors.
type database struct {
	db *gorm.DB
	mu sync.Mutex
}

func newDatabase(db *gorm.DB) *database {
	return &database{db: db}
}

// DB returns the underlying gorm.DB, for reads.
func (d *database) DB() *gorm.DB {
	return d.db
}

func (d *database) Create(ctx context.Context, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.WithContext(ctx).Create(value).Error
}

func (d *database) Save(ctx context.Context, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.WithContext(ctx).Save(value).Error
}

// SetFactChannel upserts the fact broadcast channel for a guild.
func (d *database) SetFactChannel(
	ctx context.Context,
	guildID string,
	channelID string,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	settings := GuildSettings{GuildID: guildID, FactChannelID: channelID}
	return d.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "guild_id"}},
			DoUpdates: clause.AssignmentColumns(
				[]string{"fact_channel_id", "updated_at"},
			),
		},
	).Create(&settings).Error
}

// ClearFactChannel disables the daily fact broadcast for a guild.
func (d *database) ClearFactChannel(
	ctx context.Context,
	guildID string,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.WithContext(ctx).Model(&GuildSettings{}).Where(
		"guild_id = ?",
		guildID,
	).Update("fact_channel_id", "").Error
}

// FactChannels returns the fact channel IDs for all guilds with the
// daily fact broadcast enabled.
func (d *database) FactChannels(ctx context.Context) ([]string, error) {
	var channelIDs []string
	err := d.db.WithContext(ctx).Model(&GuildSettings{}).Where(
		"fact_channel_id != ''",
	).Pluck("fact_channel_id", &channelIDs).Error
	if err != nil {
		return nil, fmt.Errorf("error loading fact channels: %w", err)
	}
	return channelIDs, nil
}
