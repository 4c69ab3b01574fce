package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreakerOpensOnFailureRatio(t *testing.T) {
	ctx := context.Background()
	b := NewBreaker(4, 0.5, time.Minute)

	for i := 0; i < 2; i++ {
		b.Report(ctx, true)
	}
	for i := 0; i < 2; i++ {
		b.Report(ctx, false)
	}
	require.False(t, b.Allow(ctx))
}

func TestBreakerHalfOpenProbeRecovers(t *testing.T) {
	ctx := context.Background()
	b := NewBreaker(1, 0.5, 10*time.Millisecond)

	b.Report(ctx, false)
	require.False(t, b.Allow(ctx))

	time.Sleep(20 * time.Millisecond)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, true)
	require.True(t, b.Allow(ctx))
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	ctx := context.Background()
	b := NewBreaker(1, 0.5, 10*time.Millisecond)

	b.Report(ctx, false)
	time.Sleep(20 * time.Millisecond)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.False(t, b.Allow(ctx))
}

func TestBackoffGrowsExponentially(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, Backoff(base, 1, 0))
	require.Equal(t, 2*base, Backoff(base, 2, 0))
	require.Equal(t, 8*base, Backoff(base, 4, 0))
}
