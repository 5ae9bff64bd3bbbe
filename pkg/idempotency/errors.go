package idempotency

import "errors"

var (
	// ErrUnknownKey is returned by Commit, Fail and Release when the key has
	// no reservation, which indicates a caller protocol bug.
	ErrUnknownKey = errors.New("idempotency: unknown key")
	// ErrStore wraps backend failures (e.g. Redis connectivity).
	ErrStore = errors.New("idempotency: store failure")
)
