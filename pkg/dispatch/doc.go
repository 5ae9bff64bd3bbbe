// Package dispatch implements the client for the provider's transactional
// email API: idempotent single sends, atomic batch sends with client-side
// chunking, scheduled-email mutation, and email retrieval and listing.
//
// # Single sends
//
//	client, err := dispatch.New(cfg, dispatch.WithStore(store))
//	outcome, err := client.SendSingle(ctx, req, idempotency.Key("signup", userID))
//
// SendSingle validates the request locally, reserves the idempotency key
// against a fingerprint of the payload, and only then dispatches with
// bounded retries. Re-submitting the same key with an identical payload
// within the key's 24 hour lifetime returns the stored outcome without a
// network call; the same key with a different payload is a conflict.
//
// # Batch sends
//
//	results, err := client.SendBatch(ctx, batch, idempotency.BatchKey("digest", batchID))
//
// The whole batch is validated before any network traffic - the provider
// applies each submission atomically, so one invalid element would fail the
// entire call anyway. Oversized batches are split into chunks of at most
// mail.MaxBatchSize elements, each carrying a derived key, and dispatched
// with bounded concurrency. Chunks succeed and fail independently: the
// returned ChunkResult slice maps every original element index to exactly
// one chunk, so the caller can re-submit precisely the ranges that failed.
// Cross-chunk atomicity is deliberately not promised - chunking is a
// client-side concern.
//
// # Retries
//
// 429 and 5xx responses, transport errors and attempt timeouts are retried
// with exponential backoff, reusing the same idempotency key on every
// attempt so the remote deduplicates an attempt whose response was lost.
// 4xx responses are terminal. A spent budget surfaces as retry.ErrExhausted
// wrapped in the returned error, never silently dropped.
//
// # Mailbox operations
//
// Get, List, Reschedule and Cancel cover the retrieval and scheduled-email
// mutation endpoints. List returns a lazy, restartable Pager over
// cursor-delimited pages.
package dispatch
