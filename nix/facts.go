package nix

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// FactsClient fetches random facts from api-ninjas.
type FactsClient struct {
	url        string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewFactsClient(config *FactsConfig, logger *slog.Logger) *FactsClient {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := config.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPClientTimeout}
	}
	return &FactsClient{
		url:        config.URL,
		apiKey:     config.APIKey,
		httpClient: httpClient,
		logger:     logger.With(loggerNameKey, "facts"),
	}
}

// Fact returns a single random fact.
func (c *FactsClient) Fact(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s?limit=1", c.url),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fact request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading fact response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorContext(
			ctx,
			"fact request failed",
			"status_code", resp.StatusCode,
			"body", truncate(string(body), 512),
		)
		return "", fmt.Errorf(
			"fact request failed: %d %s",
			resp.StatusCode,
			truncate(string(body), 512),
		)
	}

	var facts []struct {
		Fact string `json:"fact"`
	}
	if err = json.Unmarshal(body, &facts); err != nil {
		return "", fmt.Errorf("error decoding fact response: %w", err)
	}
	if len(facts) == 0 {
		return "", fmt.Errorf("fact response was empty")
	}
	return facts[0].Fact, nil
}
