package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// openAICompleter serves OpenAI and every OpenAI-compatible endpoint,
// including local Ollama servers.
type openAICompleter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

func newOpenAI(cfg Config, defaultModel, defaultURL string) *openAICompleter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		clientConfig.BaseURL = cfg.BaseURL
	case defaultURL != "":
		clientConfig.BaseURL = defaultURL
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	clientConfig.HTTPClient = newHTTPClient(timeout)

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &openAICompleter{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}
}

func (c *openAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	slog.Debug("llm: openai request", slog.String("model", c.model), slog.Int("prompt_len", len(prompt)))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: openai chat: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
