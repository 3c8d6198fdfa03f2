package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiterPerHost(t *testing.T) {
	limiter := NewHostLimiter(0.01, 1)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, "https://boards.example/a/thread/1"))
	require.NoError(t, limiter.Wait(ctx, "https://iqdb.example/?url=x"), "other hosts have their own bucket")

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, limiter.Wait(short, "https://boards.example/a/thread/2"), "same host shares a bucket")
}

func TestHostLimiterUnlimited(t *testing.T) {
	limiter := NewHostLimiter(0, 0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.Wait(ctx, "https://boards.example/"))
	}
}

func TestHostLimiterWaitRespectsContext(t *testing.T) {
	limiter := NewHostLimiter(0.01, 1)
	require.NoError(t, limiter.Wait(context.Background(), "https://boards.example/"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Wait(ctx, "https://boards.example/")
	assert.Error(t, err)
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "boards.example", hostOf("https://boards.example/a/thread/1"))
	assert.Equal(t, "not a url", hostOf("not a url"))
}
