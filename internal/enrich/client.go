// Package enrich routes searches through an external language model for
// query rewriting, relevance analysis, summarization, and entity extraction.
package enrich

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Completer is the contract the enrichment stages expect from the external
// model: one free-text completion per request, bounded by maxTokens.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Client is a Completer backed by an OpenAI-compatible chat-completion API.
type Client struct {
	api    *openai.Client
	model  string
	logger *zap.Logger
}

// ClientConfig holds the model provider settings. Model is required; it is
// injected here rather than hard-coded so deployments can switch providers.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewClient creates a model client for the configured provider.
func NewClient(cfg ClientConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:    openai.NewClientWithConfig(apiCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Complete sends prompt as a single user message and returns the model's
// text response.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", wrapAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// wrapAPIError extracts a readable message from provider error shapes.
func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("model API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("model request error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}
	return fmt.Errorf("model request failed: %w", err)
}
