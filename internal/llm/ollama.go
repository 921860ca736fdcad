package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaClient calls a local Ollama server
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient uses cfg.BaseURL when set, otherwise OLLAMA_HOST
func NewOllamaClient(cfg Config) (*OllamaClient, error) {
	var client *api.Client
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama base url: %w", err)
		}
		client = api.NewClient(base, http.DefaultClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}
	return &OllamaClient{client: client, model: cfg.Model}, nil
}

func (c *OllamaClient) Name() string { return ProviderOllama + "/" + c.model }

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": 0.7,
		},
	}

	var sb strings.Builder
	err := c.client.Generate(ctx, req, func(g api.GenerateResponse) error {
		sb.WriteString(g.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return nonEmpty(ProviderOllama, sb.String())
}

// IsModelAvailable checks that the configured model has been pulled
func (c *OllamaClient) IsModelAvailable(ctx context.Context) error {
	models, err := c.client.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	for _, m := range models.Models {
		if m.Name == c.model || m.Model == c.model {
			return nil
		}
	}
	return fmt.Errorf("model %s not found on ollama server", c.model)
}
