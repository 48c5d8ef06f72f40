package nix

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// outcomeRecorder persists finished-game history. Satisfied by
// *database; nil disables recording.
type outcomeRecorder interface {
	Create(ctx context.Context, value any) error
}

// TriviaRegistry maps channel IDs to active trivia sessions, enforcing
// at most one session per channel. It holds no game logic beyond
// uniqueness and retrieval.
type TriviaRegistry struct {
	config   *TriviaConfig
	notifier TriviaNotifier
	logger   *slog.Logger
	sched    scheduler
	recorder outcomeRecorder

	// newSource builds a question source for a new session's category.
	// Swapped out in tests.
	newSource func(category string) questionProvider

	mu       sync.Mutex
	sessions map[string]*TriviaSession
}

// NewTriviaRegistry creates a registry. The notifier is the chat
// adapter sessions render through; recorder may be nil.
func NewTriviaRegistry(
	config *TriviaConfig,
	notifier TriviaNotifier,
	recorder outcomeRecorder,
	logger *slog.Logger,
) *TriviaRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(loggerNameKey, "trivia_registry")
	r := &TriviaRegistry{
		config:   config,
		notifier: notifier,
		logger:   logger,
		sched:    timerScheduler{},
		recorder: recorder,
		sessions: map[string]*TriviaSession{},
	}
	r.newSource = func(category string) questionProvider {
		return NewQuestionSource(config, category, logger)
	}
	return r
}

// Get returns the active session for a channel, or nil.
func (r *TriviaRegistry) Get(channelID string) *TriviaSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[channelID]
}

// Len returns the number of active sessions.
func (r *TriviaRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Start creates, starts and registers a session for a channel.
//
// Returns ErrTriviaAlreadyActive if the channel already has a game
// running, and ErrNoQuestionAvailable if the provider had no
// questions - in which case nothing is registered.
func (r *TriviaRegistry) Start(
	ctx context.Context,
	channelID string,
	guildID string,
	playerID string,
	category string,
) (*TriviaSession, error) {
	r.mu.Lock()
	if _, ok := r.sessions[channelID]; ok {
		r.mu.Unlock()
		return nil, ErrTriviaAlreadyActive
	}
	r.mu.Unlock()

	session := newTriviaSession(
		channelID,
		guildID,
		category,
		playerID,
		r.config.WinThreshold,
		r.newSource(category),
		r.notifier,
		r.logger,
		r.retire,
	)
	// the first question draw suspends on the provider fetch, so it
	// happens before the check-and-insert rather than under the
	// registry lock
	if err := session.start(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, ok := r.sessions[channelID]; ok {
		r.mu.Unlock()
		return nil, ErrTriviaAlreadyActive
	}
	r.sessions[channelID] = session
	r.mu.Unlock()

	session.announce(ctx)
	session.scheduleTimeout(r.sched, r.config.SessionTimeout)
	r.logger.InfoContext(
		ctx,
		"trivia session created",
		"channel_id", channelID,
		"category", category,
		"player_id", playerID,
	)
	return session, nil
}

// Remove deregisters the session for a channel. Removing a channel
// with no session is logged and tolerated - the timeout callback and
// an explicit stop can race to remove the same session.
func (r *TriviaRegistry) Remove(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[channelID]; !ok {
		r.logger.Warn(
			"tried to remove inactive trivia session",
			"channel_id", channelID,
		)
		return
	}
	delete(r.sessions, channelID)
}

// StopAll ends every active session, for shutdown.
func (r *TriviaRegistry) StopAll(ctx context.Context) {
	r.mu.Lock()
	sessions := make([]*TriviaSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		if err := s.Stop(ctx); err != nil {
			r.logger.Warn(
				"error stopping trivia session",
				"channel_id", s.channelID,
				tint.Err(err),
			)
		}
	}
}

// retire is the session teardown callback: deregisters the session
// and records the outcome.
func (r *TriviaRegistry) retire(s *TriviaSession, result TriviaResult) {
	r.Remove(s.channelID)

	if r.recorder == nil {
		return
	}
	outcome := &TriviaOutcome{
		ChannelID:   s.channelID,
		GuildID:     s.guildID,
		WinnerID:    result.WinnerID,
		WinnerScore: result.WinnerScore,
		Players:     len(result.Scores),
		Reason:      string(result.Reason),
		StartedAt:   s.createdAt.UnixMilli(),
		EndedAt:     time.Now().UnixMilli(),
	}
	if err := r.recorder.Create(context.Background(), outcome); err != nil {
		r.logger.Error(
			"error recording trivia outcome",
			"channel_id", s.channelID,
			tint.Err(err),
		)
	}
}
