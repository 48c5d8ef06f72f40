package nix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"

	"github.com/vartanbeno/go-reddit/v2/reddit"
)

var (
	// ErrSubredditNotFound covers missing and banned subreddits.
	ErrSubredditNotFound = errors.New("subreddit not found")

	// ErrSubredditForbidden covers private and quarantined subreddits.
	ErrSubredditForbidden = errors.New("subreddit is private or banned")

	// ErrSubredditEmpty is returned when a subreddit exists but had no
	// top posts for the requested period.
	ErrSubredditEmpty = errors.New("no posts found")
)

// RedditPost is the plain data returned for a subreddit post, for the
// chat adapter to render.
type RedditPost struct {
	Title string
	Link  string
}

// redditPoster is the subset of the go-reddit subreddit service used
// here. Satisfied by reddit.SubredditService.
type redditPoster interface {
	TopPosts(
		ctx context.Context,
		subreddit string,
		opts *reddit.ListPostOptions,
	) ([]*reddit.Post, *reddit.Response, error)
}

// RedditClient picks random top posts from subreddits, using the
// read-only (unauthenticated) Reddit API.
type RedditClient struct {
	posts  redditPoster
	limit  int
	logger *slog.Logger
}

func NewRedditClient(
	config *RedditConfig,
	logger *slog.Logger,
) (*RedditClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := reddit.NewReadonlyClient(
		reddit.WithUserAgent(config.UserAgent),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating reddit client: %w", err)
	}
	limit := config.PostLimit
	if limit <= 0 {
		limit = DefaultRedditPostLimit
	}
	return &RedditClient{
		posts:  client.Subreddit,
		limit:  limit,
		logger: logger.With(loggerNameKey, "reddit"),
	}, nil
}

// RandomTopPost returns a random post from the subreddit's top posts
// for the given period (hour, day, week, month, year, all).
func (c *RedditClient) RandomTopPost(
	ctx context.Context,
	subreddit string,
	period string,
) (*RedditPost, error) {
	posts, resp, err := c.posts.TopPosts(
		ctx,
		subreddit,
		&reddit.ListPostOptions{
			ListOptions: reddit.ListOptions{Limit: c.limit},
			Time:        period,
		},
	)
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusNotFound:
				return nil, ErrSubredditNotFound
			case http.StatusForbidden:
				return nil, ErrSubredditForbidden
			}
		}
		return nil, fmt.Errorf("error fetching top posts: %w", err)
	}
	if len(posts) == 0 {
		return nil, ErrSubredditEmpty
	}

	post := posts[rand.Intn(len(posts))]
	link := post.URL
	if post.IsSelfPost {
		link = post.Body
	}
	return &RedditPost{Title: post.Title, Link: link}, nil
}
