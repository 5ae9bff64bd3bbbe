// Package retry executes idempotent network operations with exponential
// backoff and a bounded retry budget.
//
// Every attempt is classified before the next step is chosen: success ends
// the loop, terminal failures (request is wrong, key conflict) return
// immediately, and retryable failures (rate limits, server faults,
// transport errors, timeouts) wait out a backoff delay and try again. Once
// the budget is spent the last error is wrapped in ErrExhausted and
// surfaced - never swallowed.
//
// The loop is an explicit state machine (attempting -> waiting -> attempting
// ... -> succeeded | exhausted) driven by a Clock, so tests inject a
// virtual clock and assert the exact delay sequence instead of sleeping.
//
//	ex := retry.New(
//	    retry.WithMaxRetries(4),
//	    retry.WithBackoff(retry.ExponentialBackoff{InitialInterval: time.Second}),
//	    retry.WithClassifier(classify),
//	)
//	result, err := retry.Do(ctx, ex, func(ctx context.Context) (*Response, error) {
//	    return callProvider(ctx)
//	})
//
// The operation must be idempotent: the caller is expected to attach the
// same idempotency key to every attempt so the remote side can deduplicate
// an attempt that succeeded after its response was lost in transit.
package retry
