package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// White-box tests: expiry is driven by swapping the store clock.

func TestMemoryStoreCommitThenDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	res, err := s.Reserve(ctx, "welcome/u1", "fp-a")
	require.NoError(t, err)
	assert.Equal(t, StateFresh, res.State)
	assert.False(t, res.Attempted)

	require.NoError(t, s.Commit(ctx, "welcome/u1", []byte(`{"id":"e1"}`)))

	res, err = s.Reserve(ctx, "welcome/u1", "fp-a")
	require.NoError(t, err)
	assert.Equal(t, StateDuplicate, res.State)
	assert.Equal(t, []byte(`{"id":"e1"}`), res.Outcome)
}

func TestMemoryStoreConflict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("against an in-flight holder", func(t *testing.T) {
		t.Parallel()

		s := NewMemoryStore(time.Hour)
		_, err := s.Reserve(ctx, "k", "fp-a")
		require.NoError(t, err)

		res, err := s.Reserve(ctx, "k", "fp-b")
		require.NoError(t, err)
		assert.Equal(t, StateConflict, res.State)
		assert.Nil(t, res.Outcome, "in-flight holder has no outcome yet")
	})

	t.Run("against a committed entry", func(t *testing.T) {
		t.Parallel()

		s := NewMemoryStore(time.Hour)
		_, err := s.Reserve(ctx, "k", "fp-a")
		require.NoError(t, err)
		require.NoError(t, s.Commit(ctx, "k", []byte(`{"id":"e1"}`)))

		res, err := s.Reserve(ctx, "k", "fp-b")
		require.NoError(t, err)
		assert.Equal(t, StateConflict, res.State)
		assert.Equal(t, []byte(`{"id":"e1"}`), res.Outcome)
	})
}

func TestMemoryStoreConcurrentReserveAwaitsHolder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	_, err := s.Reserve(ctx, "k", "fp-a")
	require.NoError(t, err)

	type result struct {
		res Reservation
		err error
	}
	got := make(chan result, 1)
	go func() {
		res, err := s.Reserve(ctx, "k", "fp-a")
		got <- result{res, err}
	}()

	// The second reserver must block while the holder is in flight.
	select {
	case r := <-got:
		t.Fatalf("reserve returned while key was in flight: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, s.Commit(ctx, "k", []byte(`{"id":"e1"}`)))

	select {
	case r := <-got:
		require.NoError(t, r.err)
		assert.Equal(t, StateDuplicate, r.res.State)
		assert.Equal(t, []byte(`{"id":"e1"}`), r.res.Outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked reserver was not woken by commit")
	}
}

func TestMemoryStoreReleaseHandsKeyBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	_, err := s.Reserve(ctx, "k", "fp-a")
	require.NoError(t, err)

	type result struct {
		res Reservation
		err error
	}
	got := make(chan result, 1)
	go func() {
		res, err := s.Reserve(ctx, "k", "fp-a")
		got <- result{res, err}
	}()

	// Let the second reserver block on the in-flight holder, then drop
	// the reservation entirely; the waiter should win a fresh claim.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Release(ctx, "k"))

	select {
	case r := <-got:
		require.NoError(t, r.err)
		assert.Equal(t, StateFresh, r.res.State)
		assert.False(t, r.res.Attempted, "released keys carry no attempt history")
	case <-time.After(2 * time.Second):
		t.Fatal("blocked reserver was not woken by release")
	}
}

func TestMemoryStoreFailAllowsRedispatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	_, err := s.Reserve(ctx, "k", "fp-a")
	require.NoError(t, err)
	require.NoError(t, s.Fail(ctx, "k", []byte(`{"kind":"exhausted"}`)))

	t.Run("same payload re-reserves with the attempt flag", func(t *testing.T) {
		res, err := s.Reserve(ctx, "k", "fp-a")
		require.NoError(t, err)
		assert.Equal(t, StateFresh, res.State)
		assert.True(t, res.Attempted)
	})

	t.Run("different payload still conflicts", func(t *testing.T) {
		res, err := s.Reserve(ctx, "other", "fp-a")
		require.NoError(t, err)
		require.Equal(t, StateFresh, res.State)
		require.NoError(t, s.Fail(ctx, "other", nil))

		res, err = s.Reserve(ctx, "other", "fp-b")
		require.NoError(t, err)
		assert.Equal(t, StateConflict, res.State)
	})
}

func TestMemoryStoreFinishUnknownKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	assert.ErrorIs(t, s.Commit(ctx, "nope", nil), ErrUnknownKey)
	assert.ErrorIs(t, s.Fail(ctx, "nope", nil), ErrUnknownKey)
	assert.ErrorIs(t, s.Release(ctx, "nope"), ErrUnknownKey)
}

func TestMemoryStoreExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base

	s := NewMemoryStore(24 * time.Hour)
	s.now = func() time.Time { return current }

	_, err := s.Reserve(ctx, "k", "fp-a")
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, "k", []byte(`{"id":"e1"}`)))

	// Within the lifetime a different payload conflicts.
	current = base.Add(23 * time.Hour)
	res, err := s.Reserve(ctx, "k", "fp-b")
	require.NoError(t, err)
	assert.Equal(t, StateConflict, res.State)

	// Past the lifetime the key is forgotten and reusable.
	current = base.Add(25 * time.Hour)
	res, err = s.Reserve(ctx, "k", "fp-b")
	require.NoError(t, err)
	assert.Equal(t, StateFresh, res.State)
}

func TestMemoryStoreSweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base

	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return current }

	_, err := s.Reserve(ctx, "done", "fp")
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, "done", nil))

	_, err = s.Reserve(ctx, "inflight", "fp")
	require.NoError(t, err)

	current = base.Add(2 * time.Hour)
	assert.Equal(t, 1, s.Sweep(), "pending entries keep their claim")
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreReserveHonoursContext(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(time.Hour)
	_, err := s.Reserve(context.Background(), "k", "fp-a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = s.Reserve(ctx, "k", "fp-a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
