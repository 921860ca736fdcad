package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorokinportal/internal/llm"
)

func TestUsageQuota(t *testing.T) {
	e := newTestEnv(t, nil)
	ctx := context.Background()
	user := e.createUser("ada")

	require.NoError(t, e.usage.Consume(ctx, user.ID, llm.TierPremium))
	require.NoError(t, e.usage.Consume(ctx, user.ID, llm.TierPremium))
	assert.ErrorIs(t, e.usage.Consume(ctx, user.ID, llm.TierPremium), ErrQuotaExceeded)
	assert.ErrorIs(t, e.usage.Consume(ctx, user.ID, "turbo"), ErrUnknownTier)

	snap := e.usage.Snapshot(e.reload(user.ID))
	assert.Equal(t, Usage{FastUsed: 0, FastLimit: 100, PremiumUsed: 2, PremiumLimit: 2, FastLeft: 100, PremiumLeft: 0}, snap)

	// A new local day resets both counters
	e.setNow(testNow.Add(24 * time.Hour))
	stale := e.usage.Snapshot(e.reload(user.ID))
	assert.Zero(t, stale.PremiumUsed, "stale counters read as zero")

	require.NoError(t, e.usage.Consume(ctx, user.ID, llm.TierPremium))
	got := e.reload(user.ID)
	assert.Equal(t, 1, got.ProUsage)
	assert.Equal(t, "2026-10-19", got.LastActiveDate)
}

func TestUsageReset(t *testing.T) {
	e := newTestEnv(t, nil)
	ctx := context.Background()
	user := e.createUser("ada")

	require.NoError(t, e.usage.Consume(ctx, user.ID, llm.TierFast))
	require.NoError(t, e.usage.Reset(ctx, user.ID))
	assert.Equal(t, 1, e.reload(user.ID).FlashUsage, "same-day reset keeps the count")

	e.setNow(testNow.Add(48 * time.Hour))
	require.NoError(t, e.usage.Reset(ctx, user.ID))
	assert.Zero(t, e.reload(user.ID).FlashUsage)
}
