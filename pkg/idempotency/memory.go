package idempotency

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type entryState int

const (
	entryPending entryState = iota
	entryCommitted
	entryFailed
)

type memoryEntry struct {
	fingerprint string
	state       entryState
	outcome     []byte
	attempted   bool
	createdAt   time.Time
	// done is closed whenever the entry leaves the pending state, waking
	// blocked reservers. Recreated each time the entry goes pending again.
	done chan struct{}
}

// MemoryStore is an in-process Store guarded by a single mutex. Suitable
// for tests and single-replica deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration

	// now is swapped in tests to drive expiry deterministically.
	now func() time.Time
}

// NewMemoryStore creates a MemoryStore with the given entry lifetime.
// Zero or negative ttl falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Reserve(ctx context.Context, key, fingerprint string) (Reservation, error) {
	for {
		s.mu.Lock()

		e, ok := s.entries[key]
		if ok && e.state != entryPending && s.now().Sub(e.createdAt) >= s.ttl {
			// Expiry is advisory: the provider forgets the key too, so the
			// same key may start a new operation.
			delete(s.entries, key)
			e, ok = nil, false
		}

		if !ok {
			s.entries[key] = &memoryEntry{
				fingerprint: fingerprint,
				state:       entryPending,
				createdAt:   s.now(),
				done:        make(chan struct{}),
			}
			s.mu.Unlock()
			return Reservation{State: StateFresh}, nil
		}

		if e.fingerprint != fingerprint {
			res := Reservation{State: StateConflict}
			if e.state == entryCommitted {
				res.Outcome = e.outcome
			}
			s.mu.Unlock()
			return res, nil
		}

		switch e.state {
		case entryCommitted:
			res := Reservation{State: StateDuplicate, Outcome: e.outcome}
			s.mu.Unlock()
			return res, nil
		case entryFailed:
			// Same payload after a failed run: hand the key back so the
			// caller re-dispatches under it and the remote deduplicates.
			e.state = entryPending
			e.done = make(chan struct{})
			s.mu.Unlock()
			return Reservation{State: StateFresh, Attempted: true}, nil
		default:
			done := e.done
			s.mu.Unlock()
			select {
			case <-ctx.Done():
				return Reservation{}, ctx.Err()
			case <-done:
				// In-flight holder finished; re-evaluate.
			}
		}
	}
}

func (s *MemoryStore) Commit(_ context.Context, key string, outcome []byte) error {
	return s.finish(key, entryCommitted, outcome, false)
}

func (s *MemoryStore) Fail(_ context.Context, key string, outcome []byte) error {
	return s.finish(key, entryFailed, outcome, true)
}

func (s *MemoryStore) finish(key string, state entryState, outcome []byte, attempted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	e.state = state
	e.outcome = outcome
	if attempted {
		e.attempted = true
	}
	if e.done != nil {
		close(e.done)
		e.done = nil
	}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	delete(s.entries, key)
	if e.done != nil {
		close(e.done)
	}
	return nil
}

// Sweep drops expired non-pending entries and reports how many were removed.
// Pending entries are skipped: an in-flight operation keeps its claim.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var dropped int
	for key, e := range s.entries {
		if e.state != entryPending && now.Sub(e.createdAt) >= s.ttl {
			delete(s.entries, key)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of tracked keys, expired entries included until
// they are swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
