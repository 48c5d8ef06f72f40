package nix

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQuoteClient(
	t *testing.T,
	handler http.HandlerFunc,
) *QuoteClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewQuoteClient(
		&QuotesConfig{URL: srv.URL, httpClient: srv.Client()},
		nil,
	)
}

func TestQuoteClient(t *testing.T) {
	t.Parallel()
	client := newTestQuoteClient(
		t,
		func(w http.ResponseWriter, _ *http.Request) {
			// the API returns the image URL as plain text, sometimes
			// with trailing whitespace
			_, _ = w.Write(
				[]byte("https://generated.inspirobot.me/a/abc123.jpg\n"),
			)
		},
	)
	quote, err := client.Quote(context.Background())
	require.NoError(t, err)
	assert.Equal(
		t,
		"https://generated.inspirobot.me/a/abc123.jpg",
		quote,
	)
}

func TestQuoteClientError(t *testing.T) {
	t.Parallel()
	client := newTestQuoteClient(
		t,
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	)
	_, err := client.Quote(context.Background())
	assert.Error(t, err)
}
