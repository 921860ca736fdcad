package service

import (
	"context"
	"fmt"

	"sorokinportal/internal/llm"
	"sorokinportal/internal/models"
	"sorokinportal/internal/repository"
)

// Usage is the remaining daily quota per tier
type Usage struct {
	FastUsed     int `json:"fast_used"`
	FastLimit    int `json:"fast_limit"`
	PremiumUsed  int `json:"premium_used"`
	PremiumLimit int `json:"premium_limit"`
	FastLeft     int `json:"fast_left"`
	PremiumLeft  int `json:"premium_left"`
}

// UsageService enforces the per-tier daily LLM quotas
type UsageService struct {
	users  *repository.UserRepository
	limits map[string]int
	clock  Clock
}

func NewUsageService(users *repository.UserRepository, fastLimit, premiumLimit int, clock Clock) *UsageService {
	return &UsageService{
		users: users,
		limits: map[string]int{
			llm.TierFast:    fastLimit,
			llm.TierPremium: premiumLimit,
		},
		clock: clock,
	}
}

// Reset zeroes the counters if the user was last active on an earlier date
func (s *UsageService) Reset(ctx context.Context, userID int64) error {
	if _, err := s.users.ResetUsageIfStale(userID, s.clock.Today()); err != nil {
		return fmt.Errorf("failed to reset usage: %w", err)
	}
	return nil
}

// Consume takes one unit of the tier's quota, or returns ErrQuotaExceeded
func (s *UsageService) Consume(ctx context.Context, userID int64, tier string) error {
	limit, ok := s.limits[tier]
	if !ok {
		return ErrUnknownTier
	}
	if err := s.Reset(ctx, userID); err != nil {
		return err
	}
	ok, err := s.users.ConsumeUsage(userID, tier, limit)
	if err != nil {
		return fmt.Errorf("failed to consume usage: %w", err)
	}
	if !ok {
		return ErrQuotaExceeded
	}
	return nil
}

// Snapshot reports the user's quota state as of today, treating stale counters as zero
func (s *UsageService) Snapshot(user *models.User) Usage {
	u := Usage{
		FastUsed:     user.FlashUsage,
		FastLimit:    s.limits[llm.TierFast],
		PremiumUsed:  user.ProUsage,
		PremiumLimit: s.limits[llm.TierPremium],
	}
	if user.LastActiveDate != s.clock.Today() {
		u.FastUsed, u.PremiumUsed = 0, 0
	}
	u.FastLeft = max(u.FastLimit-u.FastUsed, 0)
	u.PremiumLeft = max(u.PremiumLimit-u.PremiumUsed, 0)
	return u
}
