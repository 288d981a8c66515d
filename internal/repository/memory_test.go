package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryThrottleStore(t *testing.T) {
	repo := NewMemoryThrottleStore()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := repo.CheckRateLimit(ctx, "a@x.com", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d", i+1)
	}

	allowed, err := repo.CheckRateLimit(ctx, "a@x.com", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = repo.CheckRateLimit(ctx, "b@x.com", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "keys are independent")

	now = now.Add(2 * time.Minute)
	allowed, err = repo.CheckRateLimit(ctx, "a@x.com", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "window expired")
}

func TestMemoryThrottleStore_Evicts(t *testing.T) {
	repo := NewMemoryThrottleStore()
	now := time.Now()
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1100; i++ {
		_, err := repo.CheckRateLimit(ctx, fmt.Sprintf("k%d", i), 1, time.Second)
		require.NoError(t, err)
	}
	now = now.Add(time.Minute)
	_, err := repo.CheckRateLimit(ctx, "fresh", 1, time.Second)
	require.NoError(t, err)
	assert.Len(t, repo.entries, 1)
}
