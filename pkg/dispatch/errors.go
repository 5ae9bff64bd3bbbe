package dispatch

import "errors"

var (
	// ErrInvalidConfig indicates the client cannot be constructed.
	ErrInvalidConfig = errors.New("dispatch: invalid config")
	// ErrRejected wraps terminal provider rejections (4xx): the request
	// itself is wrong and retrying it unchanged cannot succeed.
	ErrRejected = errors.New("dispatch: request rejected by provider")
	// ErrConflict is returned when an idempotency key is reused with a
	// different payload, locally or remotely (409). The caller must pick a
	// new key or confirm the prior send.
	ErrConflict = errors.New("dispatch: idempotency key conflict")
	// ErrPartialFailure is returned by SendBatch when at least one chunk did
	// not end in acceptance. Per-chunk results identify what to re-submit.
	ErrPartialFailure = errors.New("dispatch: one or more chunks failed")
	// ErrTransport wraps network-level failures of a single attempt,
	// including per-attempt timeouts. Always retryable.
	ErrTransport = errors.New("dispatch: transport error")
)
