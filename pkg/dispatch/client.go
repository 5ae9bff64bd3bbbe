package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/mailkit/pkg/async"
	"github.com/dmitrymomot/mailkit/pkg/idempotency"
	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mail"
	"github.com/dmitrymomot/mailkit/pkg/ratelimit"
	"github.com/dmitrymomot/mailkit/pkg/retry"
)

// Client talks to the provider's transactional email API. Construct with
// New; the zero value is not usable.
type Client struct {
	transport   *transport
	store       idempotency.Store
	backoff     retry.BackoffStrategy
	clock       retry.Clock
	limiter     *ratelimit.Bucket
	logger      *slog.Logger
	maxRetries  int
	concurrency int
	onAttempt   func(retry.Attempt)
}

// New creates a Client from cfg. The API key and base URL are required.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: APIKey is required", ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: BaseURL is required", ErrInvalidConfig)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: MaxRetries must not be negative", ErrInvalidConfig)
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 3
	}

	noop := logger.Noop()
	c := &Client{
		transport: &transport{
			client: &http.Client{
				Transport: &http.Transport{
					MaxIdleConns:        100,
					MaxIdleConnsPerHost: 10,
					IdleConnTimeout:     90 * time.Second,
				},
			},
			baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
			apiKey:    cfg.APIKey,
			timeout:   cfg.RequestTimeout,
			userAgent: "mailkit/1.0",
			logger:    noop,
		},
		store:       idempotency.NewMemoryStore(idempotency.DefaultTTL),
		backoff:     retry.DefaultBackoff(),
		clock:       retry.RealClock(),
		logger:      noop,
		maxRetries:  cfg.MaxRetries,
		concurrency: cfg.BatchConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) executor() *retry.Executor {
	opts := []retry.Option{
		retry.WithMaxRetries(c.maxRetries),
		retry.WithBackoff(c.backoff),
		retry.WithClock(c.clock),
		retry.WithClassifier(classify),
	}
	if c.onAttempt != nil {
		opts = append(opts, retry.WithOnAttempt(c.onAttempt))
	}
	return retry.New(opts...)
}

// SendSingle submits one email under the given idempotency key. Within the
// key's lifetime a resubmission with an identical payload replays the
// stored outcome without a network call; a different payload is a conflict.
func (c *Client) SendSingle(ctx context.Context, req mail.Request, key string) (Outcome, error) {
	if err := mail.Validate(req); err != nil {
		return rejectedOutcome(err), err
	}
	if err := mail.ValidateKey(key); err != nil {
		return rejectedOutcome(err), err
	}

	return c.dispatch(ctx, key, mail.Fingerprint(req), func(ctx context.Context) ([]string, error) {
		var resp sendResponse
		if err := c.transport.do(ctx, http.MethodPost, "/emails", key, req, &resp); err != nil {
			return nil, err
		}
		return []string{resp.ID}, nil
	})
}

// Send submits one email without an idempotency key. The provider treats
// the header as optional, but without it a retried attempt whose response
// was lost may deliver twice; prefer SendSingle.
func (c *Client) Send(ctx context.Context, req mail.Request) (Outcome, error) {
	if err := mail.Validate(req); err != nil {
		return rejectedOutcome(err), err
	}

	ids, err := retry.Do(ctx, c.executor(), func(ctx context.Context) ([]string, error) {
		if err := c.waitForSlot(ctx); err != nil {
			return nil, err
		}
		var resp sendResponse
		if err := c.transport.do(ctx, http.MethodPost, "/emails", "", req, &resp); err != nil {
			return nil, err
		}
		return []string{resp.ID}, nil
	})
	if err != nil {
		out := failureOutcome(err)
		return out, wrapFailure(out, err)
	}
	return Outcome{Kind: OutcomeAccepted, IDs: ids}, nil
}

// SendBatch validates the whole batch, splits it into provider-sized
// chunks and dispatches them with bounded concurrency. One chunk's failure
// never cancels its siblings; the aggregate reports every chunk so the
// caller can re-submit exactly the failed index ranges. A non-nil error of
// ErrPartialFailure accompanies any result set containing failures.
func (c *Client) SendBatch(ctx context.Context, batch mail.Batch, key string) ([]ChunkResult, error) {
	// A single invalid element aborts the whole call before any network
	// traffic, mirroring the provider's atomicity.
	if err := mail.ValidateBatchElements(batch); err != nil {
		return nil, err
	}
	if err := mail.ValidateKey(key); err != nil {
		return nil, err
	}

	chunks := SplitBatch(batch, key)
	sem := make(chan struct{}, c.concurrency)

	futures := make([]*async.Future[ChunkResult], len(chunks))
	for i, chunk := range chunks {
		futures[i] = async.Go(ctx, chunk, func(ctx context.Context, ch Chunk) (ChunkResult, error) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return ChunkResult{}, ctx.Err()
			}
			return c.sendChunk(ctx, ch), nil
		})
	}

	results := make([]ChunkResult, len(chunks))
	var failed bool
	for i, f := range futures {
		res, err := f.Await()
		if err != nil {
			// Cancelled before the chunk ever started; no reservation or
			// network attempt was made for it.
			res = ChunkResult{
				Index:   chunks[i].Index,
				Start:   chunks[i].Start,
				End:     chunks[i].End,
				Key:     chunks[i].Key,
				Outcome: Outcome{Kind: OutcomeTransientFailure, LastError: err.Error()},
				Err:     err,
			}
		}
		results[i] = res
		if res.Err != nil {
			failed = true
		}
	}

	if failed {
		return results, ErrPartialFailure
	}
	return results, nil
}

func (c *Client) sendChunk(ctx context.Context, ch Chunk) ChunkResult {
	outcome, err := c.dispatch(ctx, ch.Key, mail.BatchFingerprint(ch.Requests), func(ctx context.Context) ([]string, error) {
		var resp batchResponse
		if err := c.transport.do(ctx, http.MethodPost, "/emails/batch", ch.Key, ch.Requests, &resp); err != nil {
			return nil, err
		}
		ids := make([]string, len(resp.Data))
		for i, d := range resp.Data {
			ids[i] = d.ID
		}
		return ids, nil
	})

	if err != nil {
		c.logger.WarnContext(ctx, "chunk dispatch failed",
			slog.Int("chunk", ch.Index),
			slog.Int("start", ch.Start),
			slog.Int("end", ch.End),
			slog.Any("error", err))
	}

	return ChunkResult{
		Index:   ch.Index,
		Start:   ch.Start,
		End:     ch.End,
		Key:     ch.Key,
		Outcome: outcome,
		Err:     err,
	}
}

// dispatch runs one reserved, retried provider call. op must perform a
// single idempotent attempt and return the provider-assigned identifiers.
func (c *Client) dispatch(ctx context.Context, key, fingerprint string, op func(context.Context) ([]string, error)) (Outcome, error) {
	res, err := c.store.Reserve(ctx, key, fingerprint)
	if err != nil {
		return Outcome{Kind: OutcomeTransientFailure, LastError: err.Error()}, err
	}

	switch res.State {
	case idempotency.StateDuplicate:
		stored, derr := decodeOutcome(res.Outcome)
		if derr != nil {
			return Outcome{Kind: OutcomeTransientFailure, LastError: derr.Error()}, derr
		}
		c.logger.DebugContext(ctx, "duplicate submission replayed from store", slog.String("key", key))
		return stored, stored.Err()

	case idempotency.StateConflict:
		out := Outcome{Kind: OutcomeConflict}
		if len(res.Outcome) > 0 {
			if existing, derr := decodeOutcome(res.Outcome); derr == nil {
				out.Existing = &existing
			}
		}
		return out, fmt.Errorf("%w: key %q already used with a different payload", ErrConflict, key)
	}

	// Fresh reservation: we own the key until commit, fail or release.
	var attempted bool
	ids, err := retry.Do(ctx, c.executor(), func(ctx context.Context) ([]string, error) {
		if err := c.waitForSlot(ctx); err != nil {
			return nil, err
		}
		attempted = true
		return op(ctx)
	})

	// The caller's context may already be done; finishing the reservation
	// must still happen.
	storeCtx := context.WithoutCancel(ctx)

	if err == nil {
		out := Outcome{Kind: OutcomeAccepted, IDs: ids}
		if cerr := c.store.Commit(storeCtx, key, encodeOutcome(out)); cerr != nil {
			c.logger.ErrorContext(ctx, "failed to commit idempotency outcome",
				slog.String("key", key), slog.Any("error", cerr))
		}
		return out, nil
	}

	out := failureOutcome(err)

	switch {
	case !attempted:
		// No network attempt was ever made for this key; it is safe to
		// hand it back untouched.
		if rerr := c.store.Release(storeCtx, key); rerr != nil {
			c.logger.ErrorContext(ctx, "failed to release idempotency key",
				slog.String("key", key), slog.Any("error", rerr))
		}
	case out.Kind == OutcomeValidationRejected:
		// Terminal rejection: identical resubmissions replay it for free.
		if cerr := c.store.Commit(storeCtx, key, encodeOutcome(out)); cerr != nil {
			c.logger.ErrorContext(ctx, "failed to commit idempotency outcome",
				slog.String("key", key), slog.Any("error", cerr))
		}
	default:
		// The remote may have processed an attempt whose response was
		// lost: keep the key reserved, allow an identical payload to
		// re-dispatch under it later.
		if ferr := c.store.Fail(storeCtx, key, encodeOutcome(out)); ferr != nil {
			c.logger.ErrorContext(ctx, "failed to record idempotency failure",
				slog.String("key", key), slog.Any("error", ferr))
		}
	}

	return out, wrapFailure(out, err)
}

// wrapFailure pins the taxonomy sentinel matching the outcome onto the
// underlying error.
func wrapFailure(out Outcome, err error) error {
	switch {
	case apiStatus(err) == http.StatusConflict:
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case out.Kind == OutcomeValidationRejected:
		return fmt.Errorf("%w: %w", ErrRejected, err)
	default:
		return err
	}
}

func (c *Client) waitForSlot(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func rejectedOutcome(err error) Outcome {
	return Outcome{Kind: OutcomeValidationRejected, Reason: err.Error()}
}

// failureOutcome translates a dispatch error into its outcome variant.
func failureOutcome(err error) Outcome {
	status := apiStatus(err)

	switch {
	case errors.Is(err, retry.ErrExhausted):
		return Outcome{Kind: OutcomeExhausted, StatusCode: status, LastError: err.Error()}
	case status == http.StatusConflict:
		return Outcome{Kind: OutcomeConflict, StatusCode: status, LastError: err.Error()}
	case status != 0 && retry.ClassifyStatus(status) == retry.ClassTerminal:
		return Outcome{Kind: OutcomeValidationRejected, StatusCode: status, Reason: err.Error()}
	default:
		// Cancelled mid-flight or a store hiccup while failures were still
		// retryable.
		return Outcome{Kind: OutcomeTransientFailure, StatusCode: status, LastError: err.Error()}
	}
}

func apiStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
