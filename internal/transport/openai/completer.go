package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
)

// Completer is a chat-completion provider using the OpenAI-compatible API.
type Completer struct {
	client     *openai.Client
	model      string
	configured bool
	logger     *zap.Logger
}

// CompleterConfig holds the completion provider settings.
type CompleterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewCompleter creates an OpenAI-compatible chat completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Completer{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		configured: cfg.APIKey != "",
		logger:     cfg.Logger,
	}
}

// Complete sends a system+user turn pair and returns the first candidate's
// text. Temperature is set low by callers to keep answers grounded.
func (c *Completer) Complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	if !c.configured {
		return "", fmt.Errorf("completion api key missing: %w", domain.ErrNotConfigured)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
