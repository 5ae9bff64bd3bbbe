package dispatch_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/dispatch"
	"github.com/dmitrymomot/mailkit/pkg/mail"
)

func makeBatch(n int) mail.Batch {
	batch := make(mail.Batch, n)
	for i := range batch {
		batch[i] = mail.Request{
			From:    "sender@example.com",
			To:      []string{fmt.Sprintf("user%d@example.com", i)},
			Subject: fmt.Sprintf("Message %d", i),
			Text:    "hello",
		}
	}
	return batch
}

func TestSplitBatch(t *testing.T) {
	t.Parallel()

	t.Run("single chunk keeps the base key", func(t *testing.T) {
		t.Parallel()

		chunks := dispatch.SplitBatch(makeBatch(100), "batch-digest/d1")
		require.Len(t, chunks, 1)
		assert.Equal(t, "batch-digest/d1", chunks[0].Key)
		assert.Equal(t, 0, chunks[0].Start)
		assert.Equal(t, 100, chunks[0].End)
	})

	t.Run("splits 250 into 100-100-50 with derived keys", func(t *testing.T) {
		t.Parallel()

		batch := makeBatch(250)
		chunks := dispatch.SplitBatch(batch, "batch-digest/d1")
		require.Len(t, chunks, 3)

		assert.Equal(t, "batch-digest/d1/chunk-0", chunks[0].Key)
		assert.Equal(t, "batch-digest/d1/chunk-1", chunks[1].Key)
		assert.Equal(t, "batch-digest/d1/chunk-2", chunks[2].Key)

		assert.Equal(t, 100, len(chunks[0].Requests))
		assert.Equal(t, 100, len(chunks[1].Requests))
		assert.Equal(t, 50, len(chunks[2].Requests))

		// Contiguous coverage, order preserved.
		next := 0
		for i, ch := range chunks {
			assert.Equal(t, i, ch.Index)
			assert.Equal(t, next, ch.Start)
			next = ch.End
			assert.Equal(t, batch[ch.Start], ch.Requests[0])
			assert.Equal(t, batch[ch.End-1], ch.Requests[len(ch.Requests)-1])
		}
		assert.Equal(t, len(batch), next)
	})

	t.Run("101 splits into two chunks", func(t *testing.T) {
		t.Parallel()

		chunks := dispatch.SplitBatch(makeBatch(101), "k")
		require.Len(t, chunks, 2)
		assert.Equal(t, 100, len(chunks[0].Requests))
		assert.Equal(t, 1, len(chunks[1].Requests))
		assert.Equal(t, "k/chunk-0", chunks[0].Key)
		assert.Equal(t, "k/chunk-1", chunks[1].Key)
	})

	t.Run("empty batch yields no chunks", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, dispatch.SplitBatch(nil, "k"))
	})
}
