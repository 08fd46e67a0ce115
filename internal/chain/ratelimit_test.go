package chain_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/skillmint/internal/chain"
)

func TestRateLimiter_Allow(t *testing.T) {
	t.Parallel()
	rl := chain.NewRateLimiter(10, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("node"), "request %d within burst", i)
	}
	assert.False(t, rl.Allow("node"), "burst exhausted")
}

func TestRateLimiter_SeparateEndpoints(t *testing.T) {
	t.Parallel()
	rl := chain.NewRateLimiter(10, 1)

	assert.True(t, rl.Allow("primary"))
	assert.False(t, rl.Allow("primary"))
	assert.True(t, rl.Allow("fallback"))
}

func TestRateLimiter_Wait(t *testing.T) {
	t.Parallel()
	rl := chain.NewRateLimiter(100, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, rl.Wait(ctx, "node"))

	start := time.Now()
	require.NoError(t, rl.Wait(ctx, "node"))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestRateLimiter_WaitCanceled(t *testing.T) {
	t.Parallel()
	rl := chain.NewRateLimiter(1, 1)
	require.NoError(t, rl.Wait(context.Background(), "node"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, rl.Wait(ctx, "node"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	t.Parallel()
	rl := chain.NewRateLimiter(0, 10)
	assert.Nil(t, rl)

	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("node"))
	}
	require.NoError(t, rl.Wait(context.Background(), "node"))
}

func TestRateLimiter_Concurrent(t *testing.T) {
	t.Parallel()
	rl := chain.NewRateLimiter(1, 50)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("node") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, allowed.Load(), int64(50))
	assert.LessOrEqual(t, allowed.Load(), int64(52))
}
