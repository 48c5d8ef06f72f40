package nix

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/lmittmann/tint"
)

// questionFilter lists substrings that indicate a question can't be
// answered as free text (ex: "Which of the following..."), and should
// be dropped from the cache.
var questionFilter = []string{"these", "following"}

// Question is a single trivia question, immutable once drawn.
type Question struct {
	Text     string
	Answer   string
	Category string
}

// questionProvider is the question-drawing interface a TriviaSession
// depends on. Satisfied by QuestionSource.
type questionProvider interface {
	// Pull returns the next question, or nil if none are available
	Pull(ctx context.Context) *Question
}

// QuestionSource fetches batches of questions from the trivia provider
// and hands them out one at a time from a local cache.
//
// A QuestionSource is exclusively owned by a single TriviaSession,
// which serializes access to it - it is not safe for concurrent use.
type QuestionSource struct {
	url        string
	difficulty string
	category   string
	httpClient *http.Client
	logger     *slog.Logger
	cache      []Question
}

// NewQuestionSource creates a QuestionSource for the given category.
// An empty category pulls from the provider's full question pool.
func NewQuestionSource(
	config *TriviaConfig,
	category string,
	logger *slog.Logger,
) *QuestionSource {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := config.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPClientTimeout}
	}
	return &QuestionSource{
		url:        config.URL,
		difficulty: config.Difficulty,
		category:   category,
		httpClient: httpClient,
		logger:     logger.With(loggerNameKey, "question_source"),
	}
}

// providerQuestion is the provider's wire format for a single question.
type providerQuestion struct {
	Question struct {
		Text string `json:"text"`
	} `json:"question"`
	CorrectAnswer string `json:"correctAnswer"`
	Category      string `json:"category"`
}

// Pull returns the next cached question, refilling the cache from the
// provider first if it's empty. Returns nil if no question is
// available even after a refill - the caller treats that as "no
// question available right now", not as an error.
func (q *QuestionSource) Pull(ctx context.Context) *Question {
	if len(q.cache) == 0 {
		q.logger.DebugContext(ctx, "refilling question cache")
		q.refill(ctx)
	}
	if len(q.cache) == 0 {
		return nil
	}
	question := q.cache[len(q.cache)-1]
	q.cache = q.cache[:len(q.cache)-1]
	return &question
}

// refill issues a single fetch to the provider and replaces the cache
// with the surviving questions. Provider failures are logged and leave
// the cache empty - there's no retry or backoff.
func (q *QuestionSource) refill(ctx context.Context) {
	q.cache = nil

	requestURL, err := q.requestURL()
	if err != nil {
		q.logger.ErrorContext(ctx, "bad provider url", tint.Err(err))
		return
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		requestURL,
		nil,
	)
	if err != nil {
		q.logger.ErrorContext(ctx, "error creating request", tint.Err(err))
		return
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		q.logger.ErrorContext(ctx, "cache refill failed", tint.Err(err))
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		q.logger.ErrorContext(ctx, "error reading response", tint.Err(err))
		return
	}

	if resp.StatusCode != http.StatusOK {
		q.logger.ErrorContext(
			ctx,
			"cache refill failed",
			"status_code", resp.StatusCode,
			"body", truncate(string(body), 512),
		)
		return
	}

	var questions []providerQuestion
	if err = json.Unmarshal(body, &questions); err != nil {
		q.logger.ErrorContext(
			ctx,
			"error decoding provider response",
			tint.Err(err),
		)
		return
	}

	for _, pq := range questions {
		if questionUnanswerable(pq.Question.Text) {
			continue
		}
		q.cache = append(
			q.cache,
			Question{
				Text:     pq.Question.Text,
				Answer:   pq.CorrectAnswer,
				Category: pq.Category,
			},
		)
	}

	if len(q.cache) == 0 {
		q.logger.ErrorContext(
			ctx,
			"provider response empty after filtering",
			"url", requestURL,
		)
		return
	}
	q.logger.DebugContext(
		ctx,
		"cache refilled",
		"questions", len(q.cache),
	)
}

func (q *QuestionSource) requestURL() (string, error) {
	u, err := url.Parse(q.url)
	if err != nil {
		return "", fmt.Errorf("error parsing url %q: %w", q.url, err)
	}
	query := u.Query()
	query.Set("difficulties", q.difficulty)
	if q.category != "" {
		query.Set("categories", q.category)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// questionUnanswerable reports whether the question text indicates a
// list-style question that can't be answered as free text.
func questionUnanswerable(text string) bool {
	for _, s := range questionFilter {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
