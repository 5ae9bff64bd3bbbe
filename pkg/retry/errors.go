package retry

import "errors"

var (
	// ErrExhausted wraps the last attempt's error once the retry budget is spent.
	ErrExhausted = errors.New("retry: attempts exhausted")
)
