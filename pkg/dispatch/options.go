package dispatch

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/mailkit/pkg/idempotency"
	"github.com/dmitrymomot/mailkit/pkg/ratelimit"
	"github.com/dmitrymomot/mailkit/pkg/retry"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, for custom transports, proxies
// or testing.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.transport.client = client
		}
	}
}

// WithStore injects the idempotency store shared by dispatch operations.
// Defaults to an in-process MemoryStore with the provider's 24h lifetime;
// multi-replica deployments should pass a RedisStore.
func WithStore(store idempotency.Store) Option {
	return func(c *Client) {
		if store != nil {
			c.store = store
		}
	}
}

// WithLogger supplies a logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
			c.transport.logger = l
		}
	}
}

// WithBackoff overrides the retry delay strategy.
func WithBackoff(s retry.BackoffStrategy) Option {
	return func(c *Client) {
		if s != nil {
			c.backoff = s
		}
	}
}

// WithClock injects the clock backoff waits run on; tests pass a virtual
// clock to avoid real sleeps.
func WithClock(clock retry.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithRateLimit applies a local token bucket before every network attempt,
// shaping traffic under the provider's documented request rate.
func WithRateLimit(b *ratelimit.Bucket) Option {
	return func(c *Client) { c.limiter = b }
}

// WithOnAttempt registers an observation hook for every retry-loop
// transition, for metrics and logging. Must not block.
func WithOnAttempt(fn func(retry.Attempt)) Option {
	return func(c *Client) { c.onAttempt = fn }
}
