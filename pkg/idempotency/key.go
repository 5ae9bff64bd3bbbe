package idempotency

import (
	"fmt"

	"github.com/google/uuid"
)

// Key builds the documented single-send key shape "<event-type>/<entity-id>".
func Key(eventType, entityID string) string {
	return eventType + "/" + entityID
}

// BatchKey builds the documented batch key shape "batch-<event-type>/<batch-id>".
func BatchKey(eventType, batchID string) string {
	return "batch-" + eventType + "/" + batchID
}

// ChunkKey derives a per-chunk key from a batch base key. Indexes are
// zero-based, matching chunk order.
func ChunkKey(base string, index int) string {
	return fmt.Sprintf("%s/chunk-%d", base, index)
}

// NewBatchID returns a random batch identifier for callers that have no
// natural entity id for a batch.
func NewBatchID() string {
	return uuid.NewString()
}
