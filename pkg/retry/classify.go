package retry

import (
	"context"
	"errors"
)

// Class is the decision an attempt's result maps to.
type Class int

const (
	// ClassRetryable failures are transient: rate limits, server faults,
	// transport errors and timeouts. The executor backs off and retries.
	ClassRetryable Class = iota
	// ClassTerminal failures indicate the request itself is wrong and no
	// amount of retrying will fix it. Returned to the caller immediately.
	ClassTerminal
)

// Classifier maps an attempt error to a Class. A nil error never reaches
// the classifier.
type Classifier func(error) Class

// ClassifyStatus applies the provider's documented status semantics:
// 429 and any 5xx are retryable, everything else in the error range is
// terminal (400, 401, 403, 404, 409, 422 all mean the request is wrong or
// conflicting and must not be replayed as-is).
func ClassifyStatus(status int) Class {
	switch {
	case status == 429:
		return ClassRetryable
	case status >= 500:
		return ClassRetryable
	default:
		return ClassTerminal
	}
}

// defaultClassifier treats context cancellation as terminal and anything
// else (transport faults, timeouts) as retryable, matching the rule that a
// timeout is classified identically to a transport error.
func defaultClassifier(err error) Class {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassTerminal
	}
	return ClassRetryable
}
