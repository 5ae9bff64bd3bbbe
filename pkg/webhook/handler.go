package webhook

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/mailkit/pkg/logger"
)

const defaultMaxBodyBytes = 1 << 20 // deliveries are small JSON documents

type handlerConfig struct {
	logger       *slog.Logger
	maxBodyBytes int64
}

// HandlerOption configures the HTTP handler.
type HandlerOption func(*handlerConfig)

// WithHandlerLogger supplies a logger for the endpoint. Defaults to no-op.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(c *handlerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxBodyBytes caps the accepted request body size.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(c *handlerConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// NewHandler builds the callback endpoint: verify, deduplicate, route,
// acknowledge. Response codes drive the provider's redelivery schedule:
//
//   - 200: verified and enqueued (or a deduplicated redelivery, or a
//     verified but permanently malformed payload that was logged and
//     dropped so the provider stops resending it)
//   - 400: signature headers missing
//   - 401: timestamp or signature verification failed
//   - 500: a downstream handler failed; the replay record is dropped so
//     the provider's redelivery gets processed again
func NewHandler(verifier *Verifier, router *Router, opts ...HandlerOption) http.Handler {
	cfg := &handlerConfig{
		logger:       logger.Noop(),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	r.Post("/", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		payload, err := io.ReadAll(io.LimitReader(req.Body, cfg.maxBodyBytes))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		hdr := HeadersFromHTTP(req.Header)
		event, err := verifier.Verify(ctx, payload, hdr)
		switch {
		case err == nil:
		case errors.Is(err, ErrMissingHeaders):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, ErrMalformedPayload):
			// Authenticated garbage: redelivery would fail identically for
			// a day, so acknowledge and drop it loudly.
			cfg.logger.ErrorContext(ctx, "dropping malformed verified payload",
				slog.String("id", hdr.ID), slog.Any("error", err))
			w.WriteHeader(http.StatusOK)
			return
		default:
			cfg.logger.WarnContext(ctx, "rejected unverified delivery",
				slog.String("id", hdr.ID), slog.Any("error", err))
			http.Error(w, "verification failed", http.StatusUnauthorized)
			return
		}

		if event.Duplicate {
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := router.Route(ctx, event); err != nil && !errors.Is(err, ErrNoHandler) {
			// Give the redelivery a chance to succeed: the id must not
			// stay remembered as handled.
			if ferr := verifier.Forget(ctx, event.ID); ferr != nil {
				cfg.logger.ErrorContext(ctx, "failed to forget delivery id",
					slog.String("id", event.ID), slog.Any("error", ferr))
			}
			cfg.logger.ErrorContext(ctx, "event handler failed",
				slog.String("id", event.ID),
				slog.String("type", string(event.Type)),
				slog.Any("error", err))
			http.Error(w, "handler failure", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	})
	return r
}
