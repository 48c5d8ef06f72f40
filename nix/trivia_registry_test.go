package nix

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRecorder captures persisted trivia outcomes.
type stubRecorder struct {
	mu       sync.Mutex
	outcomes []*TriviaOutcome
	err      error
}

func (s *stubRecorder) Create(_ context.Context, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if outcome, ok := value.(*TriviaOutcome); ok {
		s.outcomes = append(s.outcomes, outcome)
	}
	return s.err
}

func newTestRegistry(
	recorder outcomeRecorder,
	questions func(category string) []Question,
) (*TriviaRegistry, *recordingNotifier) {
	notifier := &recordingNotifier{}
	cfg := &TriviaConfig{
		WinThreshold:   TriviaWinThreshold,
		SessionTimeout: DefaultTriviaSessionTimeout,
	}
	registry := NewTriviaRegistry(cfg, notifier, recorder, nil)
	registry.newSource = func(category string) questionProvider {
		return &stubProvider{questions: questions(category)}
	}
	return registry, notifier
}

func TestRegistryStart(t *testing.T) {
	t.Parallel()
	registry, notifier := newTestRegistry(
		nil,
		func(string) []Question {
			return []Question{
				{Text: "2+2?", Answer: "4"},
				{Text: "3+3?", Answer: "6"},
			}
		},
	)

	session, err := registry.Start(
		context.Background(),
		"chan-1",
		"guild-1",
		"player-1",
		"",
	)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 1, registry.Len())
	assert.Same(t, session, registry.Get("chan-1"))

	q := session.CurrentQuestion()
	require.NotNil(t, q)
	assert.Equal(t, "2+2?", q.Text)
	require.Len(t, notifier.questions, 1)

	outcome, err := session.SubmitGuess(context.Background(), "player-1", "4")
	require.NoError(t, err)
	assert.Equal(t, GuessCorrect, outcome)
	assert.Equal(t, 1, session.Score("player-1"))
}

func TestRegistryStartDuplicateChannel(t *testing.T) {
	t.Parallel()
	registry, _ := newTestRegistry(
		nil,
		func(string) []Question {
			return repeatedQuestions(5, "q", "a")
		},
	)
	ctx := context.Background()

	first, err := registry.Start(ctx, "chan-1", "guild-1", "player-1", "")
	require.NoError(t, err)

	// the second start is rejected and the first game is untouched
	second, err := registry.Start(ctx, "chan-1", "guild-1", "player-2", "")
	assert.ErrorIs(t, err, ErrTriviaAlreadyActive)
	assert.Nil(t, second)
	assert.Equal(t, 1, registry.Len())
	assert.Same(t, first, registry.Get("chan-1"))
	assert.False(t, first.ended.Load())

	// a different channel is fine
	_, err = registry.Start(ctx, "chan-2", "guild-1", "player-1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())
}

// racingProvider registers a competing session for the same channel
// while the first question is being fetched, mimicking a concurrent
// Start winning the channel during the fetch.
type racingProvider struct {
	registry  *TriviaRegistry
	channelID string
	winner    *TriviaSession
}

func (p *racingProvider) Pull(context.Context) *Question {
	p.registry.mu.Lock()
	p.registry.sessions[p.channelID] = p.winner
	p.registry.mu.Unlock()
	return &Question{Text: "q", Answer: "a"}
}

func TestRegistryStartLosingRaceStaysSilent(t *testing.T) {
	t.Parallel()
	notifier := &recordingNotifier{}
	cfg := &TriviaConfig{
		WinThreshold:   TriviaWinThreshold,
		SessionTimeout: DefaultTriviaSessionTimeout,
	}
	registry := NewTriviaRegistry(cfg, notifier, nil, nil)
	winner := newTestSession(
		&stubProvider{
			questions: repeatedQuestions(2, "q", "a"),
		},
		notifier,
		nil,
	)
	registry.newSource = func(string) questionProvider {
		return &racingProvider{
			registry:  registry,
			channelID: "chan-1",
			winner:    winner,
		}
	}

	session, err := registry.Start(
		context.Background(),
		"chan-1",
		"guild-1",
		"player-1",
		"",
	)
	assert.ErrorIs(t, err, ErrTriviaAlreadyActive)
	assert.Nil(t, session)

	// the winner holds the channel, and the losing session never
	// announced its drawn question
	assert.Same(t, winner, registry.Get("chan-1"))
	assert.Empty(t, notifier.questions)
}

func TestRegistryStartProviderEmpty(t *testing.T) {
	t.Parallel()
	registry, _ := newTestRegistry(
		nil,
		func(string) []Question { return nil },
	)

	session, err := registry.Start(
		context.Background(),
		"chan-1",
		"guild-1",
		"player-1",
		"",
	)
	assert.ErrorIs(t, err, ErrNoQuestionAvailable)
	assert.Nil(t, session)
	// a failed start must not leave a registration behind
	assert.Equal(t, 0, registry.Len())
	assert.Nil(t, registry.Get("chan-1"))
}

func TestRegistryStartCategory(t *testing.T) {
	t.Parallel()
	var requested []string
	registry, _ := newTestRegistry(
		nil,
		func(category string) []Question {
			requested = append(requested, category)
			return repeatedQuestions(2, "q", "a")
		},
	)

	_, err := registry.Start(
		context.Background(),
		"chan-1",
		"guild-1",
		"player-1",
		"music",
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"music"}, requested)
}

func TestRegistryRemoveIdempotent(t *testing.T) {
	t.Parallel()
	registry, _ := newTestRegistry(
		nil,
		func(string) []Question {
			return repeatedQuestions(2, "q", "a")
		},
	)
	_, err := registry.Start(
		context.Background(),
		"chan-1",
		"guild-1",
		"player-1",
		"",
	)
	require.NoError(t, err)

	registry.Remove("chan-1")
	assert.Equal(t, 0, registry.Len())
	registry.Remove("chan-1")
	registry.Remove("never-existed")
}

func TestRegistryRetireOnWin(t *testing.T) {
	t.Parallel()
	recorder := &stubRecorder{}
	registry, _ := newTestRegistry(
		recorder,
		func(string) []Question {
			return repeatedQuestions(10, "q", "Paris")
		},
	)
	ctx := context.Background()

	session, err := registry.Start(ctx, "chan-1", "guild-9", "player-1", "")
	require.NoError(t, err)

	session.mu.Lock()
	session.scores["player-1"] = 4
	session.mu.Unlock()

	outcome, err := session.SubmitGuess(ctx, "player-1", "Paris")
	require.NoError(t, err)
	assert.Equal(t, GuessWon, outcome)

	// the win tears the session down and records the outcome
	assert.Equal(t, 0, registry.Len())
	assert.Nil(t, registry.Get("chan-1"))
	require.Len(t, recorder.outcomes, 1)
	recorded := recorder.outcomes[0]
	assert.Equal(t, "chan-1", recorded.ChannelID)
	assert.Equal(t, "guild-9", recorded.GuildID)
	assert.Equal(t, "player-1", recorded.WinnerID)
	assert.Equal(t, 5, recorded.WinnerScore)
	assert.Equal(t, 1, recorded.Players)
	assert.Equal(t, string(TriviaEndWon), recorded.Reason)
	assert.Positive(t, recorded.StartedAt)
	assert.GreaterOrEqual(t, recorded.EndedAt, recorded.StartedAt)

	// the channel is free for a new game
	_, err = registry.Start(ctx, "chan-1", "guild-9", "player-2", "")
	require.NoError(t, err)
}

func TestRegistryStopAll(t *testing.T) {
	t.Parallel()
	recorder := &stubRecorder{}
	registry, notifier := newTestRegistry(
		recorder,
		func(string) []Question {
			return repeatedQuestions(2, "q", "a")
		},
	)
	ctx := context.Background()
	for _, channelID := range []string{"chan-1", "chan-2", "chan-3"} {
		_, err := registry.Start(ctx, channelID, "guild-1", "player-1", "")
		require.NoError(t, err)
	}
	require.Equal(t, 3, registry.Len())

	registry.StopAll(ctx)

	assert.Equal(t, 0, registry.Len())
	assert.Len(t, notifier.gameOvers, 3)
	assert.Len(t, recorder.outcomes, 3)
	for _, outcome := range recorder.outcomes {
		assert.Equal(t, string(TriviaEndStopped), outcome.Reason)
	}
}

func TestRegistryTimeoutRetires(t *testing.T) {
	t.Parallel()
	recorder := &stubRecorder{}
	registry, _ := newTestRegistry(
		recorder,
		func(string) []Question {
			return repeatedQuestions(2, "q", "a")
		},
	)
	sched := &manualScheduler{}
	registry.sched = sched
	registry.config.SessionTimeout = 42 * time.Second

	session, err := registry.Start(
		context.Background(),
		"chan-1",
		"guild-1",
		"player-1",
		"",
	)
	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, sched.d)

	sched.fire()

	assert.True(t, session.ended.Load())
	assert.Equal(t, 0, registry.Len())
	require.Len(t, recorder.outcomes, 1)
	assert.Equal(t, string(TriviaEndTimedOut), recorder.outcomes[0].Reason)
}
