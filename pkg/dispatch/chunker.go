package dispatch

import (
	"github.com/dmitrymomot/mailkit/pkg/idempotency"
	"github.com/dmitrymomot/mailkit/pkg/mail"
)

// Chunk is a provider-sized slice of a batch together with its derived
// idempotency key and the [Start, End) range of original indices it covers.
type Chunk struct {
	Index    int
	Start    int
	End      int
	Key      string
	Requests mail.Batch
}

// SplitBatch splits batch into contiguous chunks of at most
// mail.MaxBatchSize elements, preserving order. Each chunk's key is derived
// as "<base>/chunk-<index>"; a batch that fits in a single chunk keeps the
// base key unmodified so it stays compatible with non-chunked idempotency
// expectations.
func SplitBatch(batch mail.Batch, baseKey string) []Chunk {
	if len(batch) == 0 {
		return nil
	}
	if len(batch) <= mail.MaxBatchSize {
		return []Chunk{{Index: 0, Start: 0, End: len(batch), Key: baseKey, Requests: batch}}
	}

	chunks := make([]Chunk, 0, (len(batch)+mail.MaxBatchSize-1)/mail.MaxBatchSize)
	for start := 0; start < len(batch); start += mail.MaxBatchSize {
		end := min(start+mail.MaxBatchSize, len(batch))
		idx := len(chunks)
		chunks = append(chunks, Chunk{
			Index:    idx,
			Start:    start,
			End:      end,
			Key:      idempotency.ChunkKey(baseKey, idx),
			Requests: batch[start:end],
		})
	}
	return chunks
}
