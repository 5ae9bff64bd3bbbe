package retry

import (
	"context"
	"fmt"
	"time"
)

// State names the executor's position in its retry loop. Exposed through
// the OnAttempt hook for observability.
type State string

const (
	StateAttempting State = "attempting"
	StateWaiting    State = "waiting"
	StateSucceeded  State = "succeeded"
	StateExhausted  State = "exhausted"
)

// Attempt describes one transition of the retry loop.
type Attempt struct {
	// Number counts calls to the operation, starting at 1 for the initial
	// attempt.
	Number int
	// State the loop entered after this attempt.
	State State
	// Err is the attempt's failure, nil on success.
	Err error
	// Delay is the backoff applied before the next attempt, zero when the
	// loop ended.
	Delay time.Duration
}

// Executor runs operations under a retry policy. The zero value is not
// usable; construct with New.
type Executor struct {
	maxRetries int
	backoff    BackoffStrategy
	clock      Clock
	classify   Classifier
	onAttempt  func(Attempt)
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxRetries bounds the number of retries after the initial attempt.
// Negative values are ignored; zero disables retries.
func WithMaxRetries(n int) Option {
	return func(e *Executor) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithBackoff sets the delay strategy between attempts.
func WithBackoff(s BackoffStrategy) Option {
	return func(e *Executor) {
		if s != nil {
			e.backoff = s
		}
	}
}

// WithClock injects a Clock, letting tests drive backoff waits virtually.
func WithClock(c Clock) Option {
	return func(e *Executor) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithClassifier overrides error classification. The dispatch client uses
// this to map provider status codes onto the retryable/terminal split.
func WithClassifier(fn Classifier) Option {
	return func(e *Executor) {
		if fn != nil {
			e.classify = fn
		}
	}
}

// WithOnAttempt registers an observation hook invoked after every state
// transition. Useful for logging and metrics; must not block.
func WithOnAttempt(fn func(Attempt)) Option {
	return func(e *Executor) { e.onAttempt = fn }
}

// New creates an Executor with the default policy: three retries,
// exponential backoff from one second, real clock.
func New(opts ...Option) *Executor {
	e := &Executor{
		maxRetries: 3,
		backoff:    DefaultBackoff(),
		clock:      RealClock(),
		classify:   defaultClassifier,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) observe(a Attempt) {
	if e.onAttempt != nil {
		e.onAttempt(a)
	}
}

// Do runs op under the executor's policy and returns its result.
//
// Terminal failures return the operation's error unchanged so callers keep
// their typed errors. A spent retry budget returns the last error wrapped
// in ErrExhausted. Context cancellation between attempts returns ctx.Err();
// chunks already accepted by the remote are never undone.
func Do[T any](ctx context.Context, e *Executor, op func(context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			e.observe(Attempt{Number: attempt, State: StateSucceeded})
			return result, nil
		}

		if e.classify(err) == ClassTerminal {
			e.observe(Attempt{Number: attempt, State: StateExhausted, Err: err})
			return zero, err
		}

		// attempt n consumed n-1 retries so far.
		if attempt > e.maxRetries {
			e.observe(Attempt{Number: attempt, State: StateExhausted, Err: err})
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
		}

		delay := e.backoff.NextInterval(attempt)
		e.observe(Attempt{Number: attempt, State: StateWaiting, Err: err, Delay: delay})

		if serr := e.clock.Sleep(ctx, delay); serr != nil {
			// Cancellation during backoff stops new attempts.
			return zero, serr
		}
		e.observe(Attempt{Number: attempt + 1, State: StateAttempting})
	}
}
