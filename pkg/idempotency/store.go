package idempotency

import (
	"context"
	"time"
)

// DefaultTTL mirrors the provider's documented key lifetime.
const DefaultTTL = 24 * time.Hour

// State classifies the result of a reservation attempt.
type State int

const (
	// StateFresh means the caller holds the reservation and must finish it
	// with Commit, Fail or Release.
	StateFresh State = iota
	// StateDuplicate means the key already carries a committed outcome for
	// an identical payload; no dispatch must happen.
	StateDuplicate
	// StateConflict means the key was used with a different payload
	// fingerprint within its lifetime.
	StateConflict
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateDuplicate:
		return "duplicate"
	case StateConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Reservation is the outcome of Reserve.
type Reservation struct {
	State State
	// Outcome holds the committed outcome for StateDuplicate, and the
	// conflicting entry's committed outcome (nil while in flight) for
	// StateConflict.
	Outcome []byte
	// Attempted is set on a fresh reservation when a prior holder of the
	// same key and payload made at least one network attempt before
	// failing. The caller must keep using the same key so the remote can
	// deduplicate.
	Attempted bool
}

// Store is the shared mutable state of the dispatch client. Reserve must be
// an atomic check-and-set; see package documentation for the protocol.
type Store interface {
	// Reserve claims key for a payload identified by fingerprint. When the
	// key is held by an in-flight operation with the same fingerprint,
	// Reserve blocks until that operation commits, fails or releases, or
	// until ctx is done.
	Reserve(ctx context.Context, key, fingerprint string) (Reservation, error)

	// Commit records the terminal outcome of a fresh reservation. Later
	// reservations of the same key and fingerprint observe StateDuplicate
	// until the entry expires.
	Commit(ctx context.Context, key string, outcome []byte) error

	// Fail records a retryable failure (e.g. exhausted retries). The key
	// stays reserved for its remaining lifetime, but an identical payload
	// may reserve it again and re-dispatch under the same key.
	Fail(ctx context.Context, key string, outcome []byte) error

	// Release drops a reservation for which no network attempt was made.
	Release(ctx context.Context, key string) error
}
