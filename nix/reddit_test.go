package nix

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vartanbeno/go-reddit/v2/reddit"
)

type stubPoster struct {
	posts      []*reddit.Post
	statusCode int
	err        error

	subreddit string
	opts      *reddit.ListPostOptions
}

func (s *stubPoster) TopPosts(
	_ context.Context,
	subreddit string,
	opts *reddit.ListPostOptions,
) ([]*reddit.Post, *reddit.Response, error) {
	s.subreddit = subreddit
	s.opts = opts
	if s.err != nil {
		var resp *reddit.Response
		if s.statusCode != 0 {
			resp = &reddit.Response{
				Response: &http.Response{StatusCode: s.statusCode},
			}
		}
		return nil, resp, s.err
	}
	return s.posts, nil, nil
}

func newTestRedditClient(poster redditPoster) *RedditClient {
	return &RedditClient{
		posts:  poster,
		limit:  DefaultRedditPostLimit,
		logger: slog.Default(),
	}
}

func TestRandomTopPost(t *testing.T) {
	t.Parallel()
	poster := &stubPoster{
		posts: []*reddit.Post{
			{
				Title: "A raccoon in a trash can",
				URL:   "https://i.redd.it/raccoon.jpg",
			},
		},
	}
	client := newTestRedditClient(poster)

	post, err := client.RandomTopPost(
		context.Background(),
		"raccoons",
		"week",
	)
	require.NoError(t, err)
	assert.Equal(t, "A raccoon in a trash can", post.Title)
	assert.Equal(t, "https://i.redd.it/raccoon.jpg", post.Link)

	assert.Equal(t, "raccoons", poster.subreddit)
	require.NotNil(t, poster.opts)
	assert.Equal(t, "week", poster.opts.Time)
	assert.Equal(t, DefaultRedditPostLimit, poster.opts.Limit)
}

func TestRandomTopPostSelfPost(t *testing.T) {
	t.Parallel()
	client := newTestRedditClient(
		&stubPoster{
			posts: []*reddit.Post{
				{
					Title:      "TIFU by feeding a raccoon",
					URL:        "https://reddit.com/r/tifu/1",
					Body:       "It all started innocently.",
					IsSelfPost: true,
				},
			},
		},
	)

	post, err := client.RandomTopPost(context.Background(), "tifu", "day")
	require.NoError(t, err)
	// self posts link their body text rather than the permalink
	assert.Equal(t, "It all started innocently.", post.Link)
}

func TestRandomTopPostErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		poster     *stubPoster
		wantErr    error
		wantOpaque bool
	}{
		{
			name: "not found",
			poster: &stubPoster{
				err:        errors.New("404"),
				statusCode: http.StatusNotFound,
			},
			wantErr: ErrSubredditNotFound,
		},
		{
			name: "forbidden",
			poster: &stubPoster{
				err:        errors.New("403"),
				statusCode: http.StatusForbidden,
			},
			wantErr: ErrSubredditForbidden,
		},
		{
			name:    "empty subreddit",
			poster:  &stubPoster{},
			wantErr: ErrSubredditEmpty,
		},
		{
			name:       "transport error",
			poster:     &stubPoster{err: errors.New("boom")},
			wantOpaque: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(
			tt.name,
			func(t *testing.T) {
				t.Parallel()
				client := newTestRedditClient(tt.poster)
				post, err := client.RandomTopPost(
					context.Background(),
					"somewhere",
					"day",
				)
				assert.Nil(t, post)
				require.Error(t, err)
				if tt.wantOpaque {
					assert.NotErrorIs(t, err, ErrSubredditNotFound)
					assert.NotErrorIs(t, err, ErrSubredditForbidden)
					assert.NotErrorIs(t, err, ErrSubredditEmpty)
				} else {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			},
		)
	}
}
