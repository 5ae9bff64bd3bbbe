package dispatch

import (
	"encoding/json"
	"fmt"
)

// OutcomeKind tags the variants of an Outcome.
type OutcomeKind string

const (
	// OutcomeAccepted carries provider-assigned identifiers, one per
	// request in submission order.
	OutcomeAccepted OutcomeKind = "accepted"
	// OutcomeValidationRejected means the request is wrong (local
	// validation or terminal 4xx) and must not be retried unchanged.
	OutcomeValidationRejected OutcomeKind = "validation_rejected"
	// OutcomeConflict means the idempotency key was reused with a
	// different payload.
	OutcomeConflict OutcomeKind = "conflict"
	// OutcomeTransientFailure records an operation stopped while failures
	// were still retryable, e.g. cancelled mid-flight.
	OutcomeTransientFailure OutcomeKind = "transient_failure"
	// OutcomeExhausted means the retry budget was spent.
	OutcomeExhausted OutcomeKind = "exhausted"
)

// Outcome is the result variant of a dispatch operation. It is
// JSON-serializable so the idempotency store can replay it to duplicate
// submissions.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`
	// IDs is populated for OutcomeAccepted.
	IDs []string `json:"ids,omitempty"`
	// Reason describes a rejection.
	Reason string `json:"reason,omitempty"`
	// StatusCode is the provider status that produced a non-accepted
	// outcome, when one was received.
	StatusCode int `json:"status_code,omitempty"`
	// LastError preserves the final error text for exhausted or
	// interrupted operations.
	LastError string `json:"last_error,omitempty"`
	// Existing carries the prior committed outcome on a conflict, when the
	// store had one.
	Existing *Outcome `json:"existing,omitempty"`
}

// Accepted reports whether the operation ended in provider acceptance.
func (o Outcome) Accepted() bool {
	return o.Kind == OutcomeAccepted
}

// Err maps a stored outcome back onto the error taxonomy, used when a
// duplicate submission replays a committed outcome.
func (o Outcome) Err() error {
	switch o.Kind {
	case OutcomeAccepted:
		return nil
	case OutcomeValidationRejected:
		return fmt.Errorf("%w: %s", ErrRejected, o.Reason)
	case OutcomeConflict:
		return ErrConflict
	default:
		return fmt.Errorf("dispatch: operation ended as %s: %s", o.Kind, o.LastError)
	}
}

func encodeOutcome(o Outcome) []byte {
	// Outcome contains only plain data fields; marshal cannot fail.
	raw, _ := json.Marshal(o)
	return raw
}

func decodeOutcome(raw []byte) (Outcome, error) {
	var o Outcome
	if err := json.Unmarshal(raw, &o); err != nil {
		return Outcome{}, fmt.Errorf("dispatch: stored outcome corrupted: %w", err)
	}
	return o, nil
}

// ChunkResult reports one chunk's outcome and the [Start, End) range of
// original batch indices it covered, so callers can correlate identifiers
// and failures back to the submitted batch.
type ChunkResult struct {
	Index   int
	Start   int
	End     int
	Key     string
	Outcome Outcome
	// Err is nil only when the chunk was accepted (freshly or as a
	// replayed duplicate).
	Err error
}
