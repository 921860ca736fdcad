package llm

import (
	"context"
	"fmt"

	"sorokinportal/internal/config"
)

// Model tiers
const (
	TierFast    = "fast"
	TierPremium = "premium"
)

// Router hands out the client for a tier
type Router struct {
	fast    Client
	premium Client
}

func NewRouter(fast, premium Client) *Router {
	return &Router{fast: fast, premium: premium}
}

// NewRouterFromConfig builds both tiers from the LLM_* settings. The fast tier is cached when LLM_CACHE_SIZE > 0.
func NewRouterFromConfig(ctx context.Context, cfg *config.Config) (*Router, error) {
	base := Config{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		BaseURL:  cfg.LLMBaseURL,
		Timeout:  cfg.LLMTimeout,
	}

	fastCfg := base
	fastCfg.Model = cfg.LLMFastModel
	fast, err := New(ctx, fastCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create fast tier client: %w", err)
	}

	premiumCfg := base
	premiumCfg.Model = cfg.LLMPremiumModel
	premium, err := New(ctx, premiumCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create premium tier client: %w", err)
	}

	if cfg.LLMCacheSize > 0 {
		cached, err := NewCachedClient(fast, cfg.LLMCacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create response cache: %w", err)
		}
		fast = cached
	}

	return NewRouter(fast, premium), nil
}

func (r *Router) Fast() Client    { return r.fast }
func (r *Router) Premium() Client { return r.premium }

// For returns the premium client for TierPremium and the fast client otherwise
func (r *Router) For(tier string) Client {
	if tier == TierPremium {
		return r.premium
	}
	return r.fast
}

// ValidTier reports whether tier names a known tier
func ValidTier(tier string) bool {
	return tier == TierFast || tier == TierPremium
}
