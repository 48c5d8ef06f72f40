package nix

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrTriviaAlreadyActive is returned when starting a game in a
	// channel that already has one running. Surfaced to the user, not
	// a bug.
	ErrTriviaAlreadyActive = errors.New(
		"there is already an active trivia game in this channel",
	)

	// ErrNoQuestionAvailable is returned when a game can't start
	// because the question provider had nothing to give.
	ErrNoQuestionAvailable = errors.New("no trivia question available")

	// ErrSessionEnded is returned by operations on a session that's
	// already reached a terminal state.
	ErrSessionEnded = errors.New("trivia session has ended")

	// ErrNoActiveQuestion indicates a guess or skip arrived while the
	// session had no current question. The session serializes question
	// draws, so this means caller-ordering corruption - fail fast.
	ErrNoActiveQuestion = errors.New("trivia session has no active question")
)

// sessionState is the lifecycle state of a TriviaSession. States after
// sessionActive are terminal.
type sessionState int

const (
	sessionAwaiting sessionState = iota
	sessionActive
	sessionWon
	sessionTimedOut
	sessionStopped
	sessionExhausted
)

// TriviaEndReason describes why a trivia game ended.
type TriviaEndReason string

const (
	TriviaEndWon       TriviaEndReason = "won"
	TriviaEndTimedOut  TriviaEndReason = "timed_out"
	TriviaEndStopped   TriviaEndReason = "stopped"
	TriviaEndExhausted TriviaEndReason = "exhausted"
)

// GuessOutcome is the result of submitting a guess to a session.
type GuessOutcome int

const (
	// GuessIncorrect - wrong answer, no state change
	GuessIncorrect GuessOutcome = iota

	// GuessCorrect - right answer, game continues with a new question
	GuessCorrect

	// GuessWon - right answer, and the player reached the win threshold
	GuessWon

	// GuessExhausted - right answer, but the provider had no next
	// question, so the game ended
	GuessExhausted
)

func (g GuessOutcome) String() string {
	switch g {
	case GuessIncorrect:
		return "incorrect"
	case GuessCorrect:
		return "correct"
	case GuessWon:
		return "won"
	case GuessExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// TriviaResult summarizes a finished game.
type TriviaResult struct {
	Reason      TriviaEndReason
	WinnerID    string
	WinnerScore int
	Scores      map[string]int
}

// TriviaNotifier is the outbound boundary a session renders through.
// The session only passes plain data - the chat adapter owns all
// platform-specific formatting. Implemented by Discord.
type TriviaNotifier interface {
	// SendQuestion announces a newly drawn question
	SendQuestion(ctx context.Context, channelID string, question Question)

	// SendCorrect announces a correct guess and the player's new score
	SendCorrect(
		ctx context.Context,
		channelID string,
		playerID string,
		answer string,
		score int,
	)

	// SendAnswer reveals the answer to a skipped question
	SendAnswer(ctx context.Context, channelID string, answer string)

	// SendGameOver announces the end of a game
	SendGameOver(ctx context.Context, channelID string, result TriviaResult)
}

// scheduler registers cancellable delayed calls. The only
// implementation outside of tests wraps time.AfterFunc.
type scheduler interface {
	AfterFunc(d time.Duration, f func()) (cancel func() bool)
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(
	d time.Duration,
	f func(),
) (cancel func() bool) {
	return time.AfterFunc(d, f).Stop
}

// SkipResult is the result of an accepted skip: the revealed answer to
// the old question, and the next question (nil if the provider was
// exhausted, in which case the game ended).
type SkipResult struct {
	Revealed string
	Next     *Question
}

// TriviaSession is a single in-progress trivia game, bound to one
// channel. All state is in-memory and owned exclusively by the
// registry entry for its channel.
//
// Guess processing is serialized: the session mutex is held across the
// whole evaluate-guess -> update-score -> draw-next-question sequence,
// including the provider fetch inside the draw. Without that, a second
// guess arriving during the fetch could double-count a win or clobber
// the just-drawn question.
type TriviaSession struct {
	channelID    string
	guildID      string
	category     string
	winThreshold int

	source   questionProvider
	notifier TriviaNotifier
	logger   *slog.Logger

	// onEnd is the registry teardown callback, invoked exactly once
	// when the session reaches a terminal state
	onEnd func(*TriviaSession, TriviaResult)

	// ended allows public operations to bail out on a finished session
	// without contending for the mutex
	ended atomic.Bool

	mu             sync.Mutex
	state          sessionState
	question       *Question
	scores         map[string]int
	createdAt      time.Time
	lastActivityAt time.Time
	cancelTimeout  func() bool
}

func newTriviaSession(
	channelID string,
	guildID string,
	category string,
	initialPlayer string,
	winThreshold int,
	source questionProvider,
	notifier TriviaNotifier,
	logger *slog.Logger,
	onEnd func(*TriviaSession, TriviaResult),
) *TriviaSession {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	return &TriviaSession{
		channelID:      channelID,
		guildID:        guildID,
		category:       category,
		winThreshold:   winThreshold,
		source:         source,
		notifier:       notifier,
		onEnd:          onEnd,
		state:          sessionAwaiting,
		scores:         map[string]int{initialPlayer: 0},
		createdAt:      now,
		lastActivityAt: now,
		logger: logger.With(
			loggerNameKey, "trivia_session",
			"channel_id", channelID,
		),
	}
}

// ChannelID returns the channel this session is bound to.
func (s *TriviaSession) ChannelID() string {
	return s.channelID
}

// CurrentQuestion returns a copy of the active question, or nil.
func (s *TriviaSession) CurrentQuestion() *Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.question == nil {
		return nil
	}
	question := *s.question
	return &question
}

// Score returns the given player's score.
func (s *TriviaSession) Score(playerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[playerID]
}

// Scores returns a copy of the score table.
func (s *TriviaSession) Scores() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoresLocked()
}

func (s *TriviaSession) scoresLocked() map[string]int {
	scores := make(map[string]int, len(s.scores))
	for id, score := range s.scores {
		scores[id] = score
	}
	return scores
}

func (s *TriviaSession) terminalLocked() bool {
	return s.state != sessionAwaiting && s.state != sessionActive
}

// start draws the first question and activates the session. On
// failure the session stays unstartable and must not be registered.
// The first question is not announced here - the registry announces it
// once registration has succeeded, so a session that loses a creation
// race never posts anything to the channel.
func (s *TriviaSession) start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	question := s.source.Pull(ctx)
	if question == nil {
		return ErrNoQuestionAvailable
	}
	s.question = question
	s.state = sessionActive
	s.logger.DebugContext(
		ctx,
		"trivia session started",
		"question", question.Text,
		"answer", question.Answer,
	)
	return nil
}

// announce sends the current question to the channel.
func (s *TriviaSession) announce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminalLocked() || s.question == nil {
		return
	}
	s.notifier.SendQuestion(ctx, s.channelID, *s.question)
}

// scheduleTimeout registers the session's idle timeout. The timeout is
// absolute from session creation - activity does not reset it.
func (s *TriviaSession) scheduleTimeout(sched scheduler, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimeout = sched.AfterFunc(d, s.onIdleTimeout)
}

// onIdleTimeout fires when the session's timer elapses. A guess being
// processed when the timer fires finishes first (it holds the mutex);
// a guess arriving after can't resurrect the session, since the
// terminal state is set before the mutex is released.
func (s *TriviaSession) onIdleTimeout() {
	ctx := context.Background()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminalLocked() {
		return
	}
	s.logger.Debug("trivia session timed out")
	s.endLocked(ctx, sessionTimedOut, TriviaEndTimedOut, "")
}

// SubmitGuess evaluates a free-text guess from a player.
//
// On a correct guess the player's score is incremented (created at 1
// if they weren't playing yet), and either the game is won, a new
// question is drawn, or - if the provider is exhausted - the game ends
// with GuessExhausted.
func (s *TriviaSession) SubmitGuess(
	ctx context.Context,
	playerID string,
	content string,
) (GuessOutcome, error) {
	if s.ended.Load() {
		return GuessIncorrect, ErrSessionEnded
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminalLocked() {
		return GuessIncorrect, ErrSessionEnded
	}
	if s.question == nil {
		s.logger.ErrorContext(
			ctx,
			"guess submitted with no active question",
			"player_id", playerID,
		)
		return GuessIncorrect, ErrNoActiveQuestion
	}

	if !guessMatches(content, s.question.Answer) {
		return GuessIncorrect, nil
	}

	s.scores[playerID]++
	s.lastActivityAt = time.Now()
	score := s.scores[playerID]
	answer := s.question.Answer
	s.logger.InfoContext(
		ctx,
		"correct trivia answer",
		"player_id", playerID,
		"guess", content,
		"answer", answer,
		"score", score,
	)
	s.notifier.SendCorrect(ctx, s.channelID, playerID, answer, score)

	if score >= s.winThreshold {
		s.endLocked(ctx, sessionWon, TriviaEndWon, playerID)
		return GuessWon, nil
	}

	next := s.source.Pull(ctx)
	if next == nil {
		s.endLocked(ctx, sessionExhausted, TriviaEndExhausted, "")
		return GuessExhausted, nil
	}
	s.question = next
	s.notifier.SendQuestion(ctx, s.channelID, *next)
	return GuessCorrect, nil
}

// Skip discards the current question and draws a new one, revealing
// the old answer. A skip is only allowed when the game has a single
// player, or when the requesting player has already scored - a
// bystander can't skip a multiplayer game out from under the players.
// A rejected skip returns (nil, nil) and changes nothing.
func (s *TriviaSession) Skip(
	ctx context.Context,
	playerID string,
) (*SkipResult, error) {
	if s.ended.Load() {
		return nil, ErrSessionEnded
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminalLocked() {
		return nil, ErrSessionEnded
	}
	if s.question == nil {
		s.logger.ErrorContext(
			ctx,
			"skip requested with no active question",
			"player_id", playerID,
		)
		return nil, ErrNoActiveQuestion
	}

	_, isPlayer := s.scores[playerID]
	if len(s.scores) > 1 && !isPlayer {
		s.logger.DebugContext(
			ctx,
			"question skip rejected",
			"player_id", playerID,
		)
		return nil, nil
	}

	revealed := s.question.Answer
	s.lastActivityAt = time.Now()
	s.notifier.SendAnswer(ctx, s.channelID, revealed)

	next := s.source.Pull(ctx)
	if next == nil {
		s.endLocked(ctx, sessionExhausted, TriviaEndExhausted, "")
		return &SkipResult{Revealed: revealed}, nil
	}
	s.question = next
	s.notifier.SendQuestion(ctx, s.channelID, *next)
	s.logger.DebugContext(ctx, "question skipped", "player_id", playerID)
	return &SkipResult{Revealed: revealed, Next: next}, nil
}

// Stop ends the game early, announcing the final scores.
func (s *TriviaSession) Stop(ctx context.Context) error {
	if s.ended.Load() {
		return ErrSessionEnded
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminalLocked() {
		return ErrSessionEnded
	}
	s.endLocked(ctx, sessionStopped, TriviaEndStopped, "")
	return nil
}

// endLocked moves the session to a terminal state, cancels the timeout
// timer, notifies the channel and invokes the registry teardown
// callback. Callers must hold the session mutex.
func (s *TriviaSession) endLocked(
	ctx context.Context,
	state sessionState,
	reason TriviaEndReason,
	winnerID string,
) {
	s.state = state
	s.ended.Store(true)
	if s.cancelTimeout != nil {
		s.cancelTimeout()
	}
	result := TriviaResult{
		Reason:      reason,
		WinnerID:    winnerID,
		WinnerScore: s.scores[winnerID],
		Scores:      s.scoresLocked(),
	}
	s.question = nil
	s.notifier.SendGameOver(ctx, s.channelID, result)
	if s.onEnd != nil {
		s.onEnd(s, result)
	}
}
