package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorokinportal/internal/config"
	"sorokinportal/internal/quiz"
)

type countingClient struct {
	name  string
	calls atomic.Int32
	err   error
}

func (c *countingClient) Name() string { return c.name }

func (c *countingClient) Generate(ctx context.Context, prompt string) (string, error) {
	c.calls.Add(1)
	if c.err != nil {
		return "", c.err
	}
	return "reply to " + prompt, nil
}

type slowClient struct{}

func (slowClient) Name() string { return "slow" }

func (slowClient) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(time.Second):
		return "too late", nil
	}
}

func TestNewValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"unknown provider", Config{Provider: "bard", Model: "x", APIKey: "k"}, "unsupported LLM provider"},
		{"missing model", Config{Provider: ProviderOpenAI, APIKey: "k"}, "model is required"},
		{"missing key", Config{Provider: ProviderAnthropic, Model: "claude"}, "api key is required"},
		{"gemini default needs key", Config{Model: "gemini-2.0-flash"}, "api key is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(ctx, tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewBuildsProviders(t *testing.T) {
	ctx := context.Background()

	client, err := New(ctx, Config{Provider: " Offline "})
	require.NoError(t, err)
	assert.Equal(t, ProviderOffline, client.Name())

	client, err = New(ctx, Config{Provider: ProviderOpenAI, APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", client.Name())

	client, err = New(ctx, Config{Provider: ProviderAnthropic, APIKey: "sk-ant", Model: "claude-3-5-haiku-latest", Timeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &timeoutClient{}, client)
	assert.Equal(t, "anthropic/claude-3-5-haiku-latest", client.Name())

	client, err = New(ctx, Config{Provider: ProviderOllama, BaseURL: "http://127.0.0.1:11434", Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "ollama/llama3", client.Name())
}

func TestOfflineClient(t *testing.T) {
	ctx := context.Background()
	client := NewOfflineClient()

	text, err := client.Generate(ctx, quiz.Prompt("Algebra I", "Variables", "What a variable is"))
	require.NoError(t, err)
	q := quiz.Parse(text)
	require.NotNil(t, q)
	assert.Len(t, q.Questions, quiz.QuestionCount)

	title, err := client.Generate(ctx, "Give a 3-5 word title for this chat")
	require.NoError(t, err)
	assert.Equal(t, "Offline Study Session", title)

	lesson, err := client.Generate(ctx, "Teach Variables\nmore detail")
	require.NoError(t, err)
	assert.Contains(t, lesson, "Teach Variables")
	assert.NotContains(t, lesson, "more detail")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = client.Generate(cancelled, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCachedClient(t *testing.T) {
	ctx := context.Background()
	next := &countingClient{name: "fake"}

	cached, err := NewCachedClient(next, 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		text, err := cached.Generate(ctx, "teach fractions")
		require.NoError(t, err)
		assert.Equal(t, "reply to teach fractions", text)
	}
	assert.EqualValues(t, 1, next.calls.Load())

	_, _ = cached.Generate(ctx, "b")
	_, _ = cached.Generate(ctx, "c")
	assert.Equal(t, 2, cached.Len())

	// The oldest prompt was evicted
	_, _ = cached.Generate(ctx, "teach fractions")
	assert.EqualValues(t, 4, next.calls.Load())
}

func TestCachedClientSkipsErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	next := &countingClient{name: "fake", err: boom}

	cached, err := NewCachedClient(next, 4)
	require.NoError(t, err)

	_, err = cached.Generate(ctx, "p")
	assert.ErrorIs(t, err, boom)
	_, err = cached.Generate(ctx, "p")
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 2, next.calls.Load())
	assert.Equal(t, 0, cached.Len())
}

func TestWithTimeout(t *testing.T) {
	client := WithTimeout(slowClient{}, 20*time.Millisecond)

	_, err := client.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "slow", client.Name())
}

func TestRouter(t *testing.T) {
	fast := &countingClient{name: "fast"}
	premium := &countingClient{name: "premium"}
	r := NewRouter(fast, premium)

	assert.Equal(t, "fast", r.For(TierFast).Name())
	assert.Equal(t, "premium", r.For(TierPremium).Name())
	assert.Equal(t, "fast", r.For("bogus").Name())
	assert.True(t, ValidTier(TierPremium))
	assert.False(t, ValidTier("ultra"))
}

func TestNewRouterFromConfig(t *testing.T) {
	cfg := &config.Config{
		LLMProvider:  ProviderOffline,
		LLMTimeout:   time.Second,
		LLMCacheSize: 8,
	}

	r, err := NewRouterFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &CachedClient{}, r.Fast())
	assert.IsType(t, &timeoutClient{}, r.Premium())

	cfg.LLMCacheSize = 0
	r, err = NewRouterFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &timeoutClient{}, r.Fast())
}
