package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/mailkit/pkg/mail"
	"github.com/dmitrymomot/mailkit/pkg/retry"
)

// APIError is a non-2xx provider response. Its status code drives retry
// classification.
type APIError struct {
	StatusCode int    `json:"-"`
	Name       string `json:"name,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider returned %d", e.StatusCode)
}

// transport performs single HTTP attempts against the provider API.
// Retrying is the executor's job; transport does exactly one call.
type transport struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

type sendResponse struct {
	ID string `json:"id"`
}

type batchResponse struct {
	Data []sendResponse `json:"data"`
}

type listResponse struct {
	Data   []mail.Email `json:"data"`
	Cursor string       `json:"cursor,omitempty"`
}

// do performs one attempt: build, send, classify, decode. A non-empty
// idemKey is attached as the Idempotency-Key header; retried attempts must
// pass the same key so the remote can deduplicate.
func (t *transport) do(ctx context.Context, method, path, idemKey string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("dispatch: failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	// Per-attempt timeout layered on the caller's context; an expired
	// attempt is a transport error and stays retryable, while parent
	// cancellation is terminal.
	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, t.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("dispatch: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		t.logger.DebugContext(ctx, "attempt failed in transport",
			slog.String("method", method), slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	t.logger.DebugContext(ctx, "attempt completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	// 64KB cap keeps a misbehaving endpoint from exhausting memory.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jerr := json.Unmarshal(raw, apiErr); jerr != nil || apiErr.Message == "" {
			apiErr.Message = compactBody(raw)
		}
		return apiErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("dispatch: failed to decode response: %w", err)
		}
	}
	return nil
}

// compactBody flattens a response body for error messages and logs.
func compactBody(raw []byte) string {
	s := strings.ReplaceAll(string(raw), "\n", " ")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// classify maps attempt errors onto the retryable/terminal split per the
// provider's documented status semantics.
func classify(err error) retry.Class {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return retry.ClassifyStatus(apiErr.StatusCode)
	}
	// ErrTransport is checked before the context sentinels: a per-attempt
	// timeout wraps context.DeadlineExceeded inside ErrTransport and must
	// stay retryable.
	if errors.Is(err, ErrTransport) {
		return retry.ClassRetryable
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.ClassTerminal
	}
	return retry.ClassRetryable
}

func emailPath(id string) string {
	return "/emails/" + url.PathEscape(id)
}
