package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "mailkit:idem:"

type redisRecord struct {
	Fingerprint string `json:"fp"`
	State       string `json:"state"`
	Outcome     []byte `json:"outcome,omitempty"`
	Attempted   bool   `json:"attempted,omitempty"`
}

const (
	recordPending   = "pending"
	recordCommitted = "committed"
	recordFailed    = "failed"
)

// reclaimScript flips a failed record with a matching fingerprint back to
// pending, keeping its TTL, so the reclaiming caller re-dispatches under
// the same key. Returns 1 when the claim succeeded.
var reclaimScript = redis.NewScript(`
local val = redis.call('GET', KEYS[1])
if not val then return 0 end
local rec = cjson.decode(val)
if rec.state ~= 'failed' or rec.fp ~= ARGV[2] then return 0 end
redis.call('SET', KEYS[1], ARGV[1], 'KEEPTTL')
return 1
`)

// finishScript overwrites an existing record, keeping its TTL. Returns 0
// when no reservation exists, which signals a protocol bug.
var finishScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('SET', KEYS[1], ARGV[1], 'KEEPTTL')
return 1
`)

// releaseScript deletes a record only while it is still pending.
var releaseScript = redis.NewScript(`
local val = redis.call('GET', KEYS[1])
if not val then return 0 end
local rec = cjson.decode(val)
if rec.state ~= 'pending' then return 0 end
redis.call('DEL', KEYS[1])
return 1
`)

// RedisStore is a Store backed by Redis, for deployments where several
// replicas must share idempotency state. Reservation uses SET NX for the
// atomic check-and-set; waiting on an in-flight holder polls the record,
// which keeps the implementation free of pub/sub plumbing at the cost of
// up to one poll interval of extra latency.
type RedisStore struct {
	client       *redis.Client
	ttl          time.Duration
	pollInterval time.Duration
}

// NewRedisStore creates a RedisStore. Zero or negative ttl falls back to
// DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client:       client,
		ttl:          ttl,
		pollInterval: 100 * time.Millisecond,
	}
}

func (s *RedisStore) Reserve(ctx context.Context, key, fingerprint string) (Reservation, error) {
	pending, err := json.Marshal(redisRecord{Fingerprint: fingerprint, State: recordPending})
	if err != nil {
		return Reservation{}, errors.Join(ErrStore, err)
	}
	rkey := redisKeyPrefix + key

	for {
		ok, err := s.client.SetNX(ctx, rkey, pending, s.ttl).Result()
		if err != nil {
			return Reservation{}, errors.Join(ErrStore, err)
		}
		if ok {
			return Reservation{State: StateFresh}, nil
		}

		val, err := s.client.Get(ctx, rkey).Bytes()
		if errors.Is(err, redis.Nil) {
			// Expired between SetNX and Get; claim again.
			continue
		}
		if err != nil {
			return Reservation{}, errors.Join(ErrStore, err)
		}

		var rec redisRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return Reservation{}, errors.Join(ErrStore, err)
		}

		if rec.Fingerprint != fingerprint {
			res := Reservation{State: StateConflict}
			if rec.State == recordCommitted {
				res.Outcome = rec.Outcome
			}
			return res, nil
		}

		switch rec.State {
		case recordCommitted:
			return Reservation{State: StateDuplicate, Outcome: rec.Outcome}, nil
		case recordFailed:
			n, err := reclaimScript.Run(ctx, s.client, []string{rkey}, pending, fingerprint).Int()
			if err != nil {
				return Reservation{}, errors.Join(ErrStore, err)
			}
			if n == 1 {
				return Reservation{State: StateFresh, Attempted: true}, nil
			}
			// Lost the reclaim race; re-evaluate.
		default:
			select {
			case <-ctx.Done():
				return Reservation{}, ctx.Err()
			case <-time.After(s.pollInterval):
			}
		}
	}
}

func (s *RedisStore) Commit(ctx context.Context, key string, outcome []byte) error {
	return s.finish(ctx, key, recordCommitted, outcome)
}

func (s *RedisStore) Fail(ctx context.Context, key string, outcome []byte) error {
	return s.finish(ctx, key, recordFailed, outcome)
}

func (s *RedisStore) finish(ctx context.Context, key, state string, outcome []byte) error {
	rkey := redisKeyPrefix + key

	// Preserve the original fingerprint so later reservations still compare
	// payloads correctly.
	val, err := s.client.Get(ctx, rkey).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	var rec redisRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return errors.Join(ErrStore, err)
	}

	rec.State = state
	rec.Outcome = outcome
	if state == recordFailed {
		rec.Attempted = true
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrStore, err)
	}

	n, err := finishScript.Run(ctx, s.client, []string{rkey}, raw).Int()
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	n, err := releaseScript.Run(ctx, s.client, []string{redisKeyPrefix + key}).Int()
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}
