// Package llm wraps the text-generation providers behind a single prompt-in, text-out client.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Supported providers
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderOffline   = "offline"
)

// ErrEmptyResponse is returned when a provider answers with no text
var ErrEmptyResponse = errors.New("llm returned an empty response")

// Client generates text for a prompt
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Config selects and configures one provider/model pair
type Config struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

func (c Config) validate() error {
	if c.Model == "" && c.Provider != ProviderOffline {
		return fmt.Errorf("%s: model is required", c.Provider)
	}
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		if c.APIKey == "" {
			return fmt.Errorf("%s: api key is required", c.Provider)
		}
	}
	return nil
}

// New builds a client for cfg.Provider
func New(ctx context.Context, cfg Config) (Client, error) {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var (
		client Client
		err    error
	)
	switch cfg.Provider {
	case ProviderGemini:
		client, err = NewGeminiClient(ctx, cfg)
	case ProviderOpenAI:
		client = NewOpenAIClient(cfg)
	case ProviderAnthropic:
		client = NewAnthropicClient(cfg)
	case ProviderOllama:
		client, err = NewOllamaClient(cfg)
	case ProviderOffline:
		client = NewOfflineClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		client = WithTimeout(client, cfg.Timeout)
	}
	return client, nil
}

type timeoutClient struct {
	next    Client
	timeout time.Duration
}

// WithTimeout bounds every call to next by timeout
func WithTimeout(next Client, timeout time.Duration) Client {
	return &timeoutClient{next: next, timeout: timeout}
}

func (c *timeoutClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.next.Generate(ctx, prompt)
}

func (c *timeoutClient) Name() string { return c.next.Name() }

func nonEmpty(provider, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s generate: %w", provider, ErrEmptyResponse)
	}
	return text, nil
}
