package idempotency_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/idempotency"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*idempotency.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return idempotency.NewRedisStore(client, ttl), mr
}

func TestRedisStoreCommitThenDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newRedisStore(t, time.Hour)

	res, err := s.Reserve(ctx, "welcome/u1", "fp-a")
	require.NoError(t, err)
	assert.Equal(t, idempotency.StateFresh, res.State)

	require.NoError(t, s.Commit(ctx, "welcome/u1", []byte(`{"id":"e1"}`)))

	res, err = s.Reserve(ctx, "welcome/u1", "fp-a")
	require.NoError(t, err)
	assert.Equal(t, idempotency.StateDuplicate, res.State)
	assert.Equal(t, []byte(`{"id":"e1"}`), res.Outcome)
}

func TestRedisStoreConflict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newRedisStore(t, time.Hour)

	_, err := s.Reserve(ctx, "k", "fp-a")
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, "k", []byte(`{"id":"e1"}`)))

	res, err := s.Reserve(ctx, "k", "fp-b")
	require.NoError(t, err)
	assert.Equal(t, idempotency.StateConflict, res.State)
	assert.Equal(t, []byte(`{"id":"e1"}`), res.Outcome)
}

func TestRedisStoreReserveAwaitsInFlightHolder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newRedisStore(t, time.Hour)

	_, err := s.Reserve(ctx, "k", "fp-a")
	require.NoError(t, err)

	type result struct {
		res idempotency.Reservation
		err error
	}
	got := make(chan result, 1)
	go func() {
		res, err := s.Reserve(ctx, "k", "fp-a")
		got <- result{res, err}
	}()

	select {
	case r := <-got:
		t.Fatalf("reserve returned while key was in flight: %+v", r)
	case <-time.After(150 * time.Millisecond):
	}

	require.NoError(t, s.Commit(ctx, "k", []byte(`{"id":"e1"}`)))

	select {
	case r := <-got:
		require.NoError(t, r.err)
		assert.Equal(t, idempotency.StateDuplicate, r.res.State)
		assert.Equal(t, []byte(`{"id":"e1"}`), r.res.Outcome)
	case <-time.After(3 * time.Second):
		t.Fatal("blocked reserver was not woken by commit")
	}
}

func TestRedisStoreFailAllowsReclaim(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newRedisStore(t, time.Hour)

	_, err := s.Reserve(ctx, "k", "fp-a")
	require.NoError(t, err)
	require.NoError(t, s.Fail(ctx, "k", []byte(`{"kind":"exhausted"}`)))

	res, err := s.Reserve(ctx, "k", "fp-a")
	require.NoError(t, err)
	assert.Equal(t, idempotency.StateFresh, res.State)
	assert.True(t, res.Attempted, "prior network attempt must be visible to the reclaimer")

	// A different payload against the reclaimed (pending again) key conflicts.
	res, err = s.Reserve(ctx, "k", "fp-b")
	require.NoError(t, err)
	assert.Equal(t, idempotency.StateConflict, res.State)
}

func TestRedisStoreRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newRedisStore(t, time.Hour)

	_, err := s.Reserve(ctx, "k", "fp-a")
	require.NoError(t, err)
	require.NoError(t, s.Release(ctx, "k"))

	res, err := s.Reserve(ctx, "k", "fp-b")
	require.NoError(t, err)
	assert.Equal(t, idempotency.StateFresh, res.State)
}

func TestRedisStoreReleaseRefusesFinishedEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newRedisStore(t, time.Hour)

	_, err := s.Reserve(ctx, "k", "fp-a")
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, "k", nil))

	assert.ErrorIs(t, s.Release(ctx, "k"), idempotency.ErrUnknownKey)
}

func TestRedisStoreFinishUnknownKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newRedisStore(t, time.Hour)

	assert.ErrorIs(t, s.Commit(ctx, "nope", nil), idempotency.ErrUnknownKey)
	assert.ErrorIs(t, s.Fail(ctx, "nope", nil), idempotency.ErrUnknownKey)
	assert.ErrorIs(t, s.Release(ctx, "nope"), idempotency.ErrUnknownKey)
}

func TestRedisStoreEntriesExpire(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, mr := newRedisStore(t, time.Hour)

	_, err := s.Reserve(ctx, "k", "fp-a")
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, "k", []byte(`{"id":"e1"}`)))

	mr.FastForward(2 * time.Hour)

	res, err := s.Reserve(ctx, "k", "fp-b")
	require.NoError(t, err)
	assert.Equal(t, idempotency.StateFresh, res.State, "expired keys are forgotten")
}

func TestRedisStoreFinishKeepsTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, mr := newRedisStore(t, time.Hour)

	_, err := s.Reserve(ctx, "k", "fp-a")
	require.NoError(t, err)

	mr.FastForward(30 * time.Minute)
	require.NoError(t, s.Commit(ctx, "k", []byte(`{"id":"e1"}`)))

	// Commit must not restart the lifetime; the key still expires one hour
	// after the original reservation.
	mr.FastForward(31 * time.Minute)
	res, err := s.Reserve(ctx, "k", "fp-b")
	require.NoError(t, err)
	assert.Equal(t, idempotency.StateFresh, res.State)
}

func TestKeyShapes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "welcome-email/user-42", idempotency.Key("welcome-email", "user-42"))
	assert.Equal(t, "batch-digest/2025-06-01", idempotency.BatchKey("digest", "2025-06-01"))
	assert.Equal(t, "batch-digest/2025-06-01/chunk-2", idempotency.ChunkKey("batch-digest/2025-06-01", 2))
	assert.NotEmpty(t, idempotency.NewBatchID())
	assert.NotEqual(t, idempotency.NewBatchID(), idempotency.NewBatchID())
}
