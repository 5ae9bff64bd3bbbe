package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidConfig indicates a non-positive capacity, rate or interval.
var ErrInvalidConfig = errors.New("ratelimit: invalid config")

// Config describes the bucket: Capacity tokens maximum, refilled by
// RefillRate tokens every RefillInterval.
type Config struct {
	Capacity       int
	RefillRate     int
	RefillInterval time.Duration
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// Bucket is a thread-safe token bucket.
type Bucket struct {
	cfg Config

	mu     sync.Mutex
	tokens float64
	last   time.Time

	// now is swapped in tests.
	now func() time.Time
}

// NewBucket creates a full bucket from cfg.
func NewBucket(cfg Config) (*Bucket, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	b := &Bucket{
		cfg:    cfg,
		tokens: float64(cfg.Capacity),
		now:    time.Now,
	}
	b.last = b.now()
	return b, nil
}

// Allow consumes a token when one is available. When the bucket is empty it
// returns false and the duration until the next token.
func (b *Bucket) Allow() (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}

	perToken := float64(b.cfg.RefillInterval) / float64(b.cfg.RefillRate)
	deficit := 1 - b.tokens
	return false, time.Duration(deficit * perToken)
}

// Wait blocks until a token was consumed or ctx is done.
func (b *Bucket) Wait(ctx context.Context) error {
	for {
		ok, wait := b.Allow()
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Must be called with the lock held.
func (b *Bucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.last)
	if elapsed <= 0 {
		return
	}
	b.last = now

	rate := float64(b.cfg.RefillRate) / float64(b.cfg.RefillInterval)
	b.tokens += rate * float64(elapsed)
	if b.tokens > float64(b.cfg.Capacity) {
		b.tokens = float64(b.cfg.Capacity)
	}
}
