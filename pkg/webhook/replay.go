package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/mailkit/pkg/cache"
)

const defaultReplayCapacity = 65536

// ReplayStore remembers which delivery ids were already verified within the
// retention window. Remember must be atomic: two concurrent deliveries of
// the same id must resolve to exactly one fresh and one duplicate.
type ReplayStore interface {
	// Remember records id with its serialized event. When the id was
	// already present, the previously stored event is returned with
	// duplicate set and the stored value is left untouched.
	Remember(ctx context.Context, id string, event []byte) (prior []byte, duplicate bool, err error)
	// Forget drops id so a redelivery is treated as fresh again.
	Forget(ctx context.Context, id string) error
}

// MemoryReplayStore bounds replay state with an expiring LRU. Suitable for
// a single receiving process.
type MemoryReplayStore struct {
	entries *cache.TTL[string, []byte]
}

// NewMemoryReplayStore creates a store holding at most capacity ids, each
// remembered for retention.
func NewMemoryReplayStore(capacity int, retention time.Duration) *MemoryReplayStore {
	return &MemoryReplayStore{entries: cache.NewTTL[string, []byte](capacity, retention)}
}

func (s *MemoryReplayStore) Remember(_ context.Context, id string, event []byte) ([]byte, bool, error) {
	stored, inserted := s.entries.PutIfAbsent(id, event)
	if inserted {
		return nil, false, nil
	}
	return stored, true, nil
}

func (s *MemoryReplayStore) Forget(_ context.Context, id string) error {
	s.entries.Remove(id)
	return nil
}

const redisReplayPrefix = "mailkit:replay:"

// RedisReplayStore shares replay state across replicas behind one callback
// URL.
type RedisReplayStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisReplayStore creates a Redis-backed store. Zero or negative
// retention falls back to DefaultReplayRetention.
func NewRedisReplayStore(client *redis.Client, retention time.Duration) *RedisReplayStore {
	if retention <= 0 {
		retention = DefaultReplayRetention
	}
	return &RedisReplayStore{client: client, retention: retention}
}

func (s *RedisReplayStore) Remember(ctx context.Context, id string, event []byte) ([]byte, bool, error) {
	key := redisReplayPrefix + id

	ok, err := s.client.SetNX(ctx, key, event, s.retention).Result()
	if err != nil {
		return nil, false, errors.Join(ErrReplayStore, err)
	}
	if ok {
		return nil, false, nil
	}

	prior, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SetNX and Get; the redelivery is effectively
		// fresh, claim it now.
		return s.Remember(ctx, id, event)
	}
	if err != nil {
		return nil, false, errors.Join(ErrReplayStore, err)
	}
	return prior, true, nil
}

func (s *RedisReplayStore) Forget(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisReplayPrefix+id).Err(); err != nil {
		return errors.Join(ErrReplayStore, err)
	}
	return nil
}
