package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// White-box tests: refill is driven by swapping the bucket clock.

func TestNewBucketValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero capacity", Config{Capacity: 0, RefillRate: 1, RefillInterval: time.Second}},
		{"zero refill rate", Config{Capacity: 1, RefillRate: 0, RefillInterval: time.Second}},
		{"zero refill interval", Config{Capacity: 1, RefillRate: 1, RefillInterval: 0}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewBucket(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestBucketAllow(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base

	b, err := NewBucket(Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Second})
	require.NoError(t, err)
	b.now = func() time.Time { return current }
	b.last = current

	ok, _ := b.Allow()
	assert.True(t, ok)
	ok, _ = b.Allow()
	assert.True(t, ok)

	ok, wait := b.Allow()
	assert.False(t, ok, "empty bucket rejects")
	assert.Equal(t, time.Second, wait, "one full interval until the next token")

	// Half a token accrues after half an interval.
	current = base.Add(500 * time.Millisecond)
	ok, wait = b.Allow()
	assert.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait)

	current = base.Add(time.Second)
	ok, _ = b.Allow()
	assert.True(t, ok, "token refilled after the interval elapsed")
}

func TestBucketRefillCapsAtCapacity(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base

	b, err := NewBucket(Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Second})
	require.NoError(t, err)
	b.now = func() time.Time { return current }
	b.last = current

	// Idle for far longer than capacity worth of refills.
	current = base.Add(time.Hour)

	var allowed int
	for i := 0; i < 10; i++ {
		if ok, _ := b.Allow(); ok {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)
}

func TestBucketWait(t *testing.T) {
	t.Parallel()

	t.Run("returns immediately with tokens available", func(t *testing.T) {
		t.Parallel()

		b, err := NewBucket(Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second})
		require.NoError(t, err)
		assert.NoError(t, b.Wait(context.Background()))
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		t.Parallel()

		b, err := NewBucket(Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute})
		require.NoError(t, err)

		ok, _ := b.Allow()
		require.True(t, ok)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, b.Wait(ctx), context.DeadlineExceeded)
	})

	t.Run("wakes up once a token refills", func(t *testing.T) {
		t.Parallel()

		b, err := NewBucket(Config{Capacity: 1, RefillRate: 1, RefillInterval: 20 * time.Millisecond})
		require.NoError(t, err)

		ok, _ := b.Allow()
		require.True(t, ok)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, b.Wait(ctx))
	})
}
