package nix

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// QuoteClient fetches generated inspirational quote images from
// inspirobot. The API returns the image URL as a plain-text body.
type QuoteClient struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewQuoteClient(config *QuotesConfig, logger *slog.Logger) *QuoteClient {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := config.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPClientTimeout}
	}
	return &QuoteClient{
		url:        config.URL,
		httpClient: httpClient,
		logger:     logger.With(loggerNameKey, "quotes"),
	}
}

// Quote returns the URL of a freshly generated quote image.
func (c *QuoteClient) Quote(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.url,
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("quote request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading quote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"quote request failed: %d %s",
			resp.StatusCode,
			truncate(string(body), 512),
		)
	}
	return strings.TrimSpace(string(body)), nil
}
