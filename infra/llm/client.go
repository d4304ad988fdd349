// Package llm talks to OpenAI-compatible chat completion endpoints such as
// Cerebras and Groq to classify reports and produce caller guidance.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kilianp07/omnidispatch/core/model"
)

// ProviderConfig describes one OpenAI-compatible endpoint.
type ProviderConfig struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
	// APIKeyEnv names the environment variable read when APIKey is empty.
	APIKeyEnv string `json:"api_key_env"`
}

// DefaultProviders are tried in order.
var DefaultProviders = []ProviderConfig{
	{Name: "cerebras", BaseURL: "https://api.cerebras.ai/v1", Model: "llama-3.3-70b", APIKeyEnv: "CEREBRAS_API_KEY"},
	{Name: "groq", BaseURL: "https://api.groq.com/openai/v1", Model: "llama-3.3-70b-versatile", APIKeyEnv: "GROQ_API_KEY"},
}

// ErrNoAPIKey is returned for providers configured without credentials.
var ErrNoAPIKey = errors.New("llm: api key is required")

// Client wraps the go-openai client for a single provider.
type Client struct {
	name   string
	model  string
	client *openai.Client
}

// NewClient creates a client for cfg. APIKey must already be resolved.
func NewClient(cfg ProviderConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Name, ErrNoAPIKey)
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Client{name: cfg.Name, model: cfg.Model, client: openai.NewClientWithConfig(oc)}, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return c.name }

// complete runs one chat completion and returns the trimmed content of the
// first choice.
func (c *Client) complete(ctx context.Context, component string, msgs []openai.ChatCompletionMessage, temperature float32, maxTokens int) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s %s: %w: %w", c.name, component, model.ErrExternalUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", &model.MalformedResponseError{Component: c.name + "/" + component, Err: errors.New("no choices returned")}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
