package nix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// chatCompleter is the subset of the openai client used for mention
// replies. Satisfied by *openai.Client.
type chatCompleter interface {
	CreateChatCompletion(
		ctx context.Context,
		request openai.ChatCompletionRequest,
	) (openai.ChatCompletionResponse, error)
}

// ChatClient generates conversational replies to messages that mention
// the bot, in the bot's persona.
type ChatClient struct {
	client       chatCompleter
	model        string
	systemPrompt string
	maxTokens    int
	logger       *slog.Logger
}

func NewChatClient(config *ChatConfig, logger *slog.Logger) *ChatClient {
	if logger == nil {
		logger = slog.Default()
	}
	clientCfg := openai.DefaultConfig(config.Token)
	if config.httpClient != nil {
		clientCfg.HTTPClient = config.httpClient
	}
	return &ChatClient{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        config.Model,
		systemPrompt: config.SystemPrompt,
		maxTokens:    config.MaxTokens,
		logger:       logger.With(loggerNameKey, "chat"),
	}
}

// Reply generates a response to a message addressed to the bot.
func (c *ChatClient) Reply(
	ctx context.Context,
	prompt string,
) (string, error) {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:     c.model,
			MaxTokens: c.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: c.systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New("chat completion returned an empty reply")
	}
	return reply, nil
}
