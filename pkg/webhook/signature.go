package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/mailkit/pkg/logger"
)

// Standard svix-style header names used by the provider.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

// secretPrefix marks base64-encoded signing secrets as provisioned by the
// provider dashboard.
const secretPrefix = "whsec_"

// DefaultTolerance is the recommended timestamp window.
const DefaultTolerance = 5 * time.Minute

// DefaultReplayRetention exceeds the provider's ~24h redelivery horizon.
const DefaultReplayRetention = 25 * time.Hour

// Headers carries the three signature headers of a delivery.
type Headers struct {
	ID        string
	Timestamp string
	Signature string
}

// HeadersFromHTTP extracts the signature headers from an HTTP request.
func HeadersFromHTTP(h http.Header) Headers {
	return Headers{
		ID:        h.Get(HeaderID),
		Timestamp: h.Get(HeaderTimestamp),
		Signature: h.Get(HeaderSignature),
	}
}

// Config holds the verifier's process-wide settings. Secrets are fixed at
// startup; rotation happens by listing the previous secret alongside the
// current one until every in-flight delivery signed with it has drained.
type Config struct {
	// Secret is the current signing secret, either raw or in the
	// provider's "whsec_<base64>" form.
	Secret string `env:"MAILKIT_WEBHOOK_SECRET,required"`
	// PreviousSecrets keeps earlier secrets valid during rotation.
	PreviousSecrets []string `env:"MAILKIT_WEBHOOK_PREVIOUS_SECRETS"`
	// Tolerance bounds the accepted clock skew in either direction.
	Tolerance time.Duration `env:"MAILKIT_WEBHOOK_TOLERANCE" envDefault:"5m"`
	// ReplayRetention bounds how long delivered message ids are remembered.
	// Must exceed the provider's redelivery horizon.
	ReplayRetention time.Duration `env:"MAILKIT_WEBHOOK_REPLAY_RETENTION" envDefault:"25h"`
}

// Verifier authenticates inbound deliveries. Construct with NewVerifier.
type Verifier struct {
	secrets   [][]byte
	tolerance time.Duration
	replay    ReplayStore
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithReplayStore replaces the default in-memory replay cache, e.g. with
// the Redis-backed store when several replicas receive deliveries.
func WithReplayStore(store ReplayStore) Option {
	return func(v *Verifier) {
		if store != nil {
			v.replay = store
		}
	}
}

// WithLogger supplies a logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewVerifier creates a Verifier from cfg.
func NewVerifier(cfg Config, opts ...Option) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: Secret is required", ErrInvalidConfig)
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.ReplayRetention <= 0 {
		cfg.ReplayRetention = DefaultReplayRetention
	}

	secrets := make([][]byte, 0, 1+len(cfg.PreviousSecrets))
	for _, raw := range append([]string{cfg.Secret}, cfg.PreviousSecrets...) {
		key, err := decodeSecret(raw)
		if err != nil {
			return nil, err
		}
		secrets = append(secrets, key)
	}

	v := &Verifier{
		secrets:   secrets,
		tolerance: cfg.Tolerance,
		replay:    NewMemoryReplayStore(defaultReplayCapacity, cfg.ReplayRetention),
		logger:    logger.Noop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

func decodeSecret(raw string) ([]byte, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty signing secret", ErrInvalidConfig)
	}
	if rest, ok := strings.CutPrefix(raw, secretPrefix); ok {
		key, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: secret is not valid base64: %v", ErrInvalidConfig, err)
		}
		return key, nil
	}
	return []byte(raw), nil
}

// Verify authenticates a delivery and deduplicates redeliveries. It must
// receive the raw, unparsed body bytes: parsing before verification would
// invalidate the signature check.
//
// A redelivered id within the retention window returns the previously
// produced event with Duplicate set, without consulting the payload again.
func (v *Verifier) Verify(ctx context.Context, payload []byte, hdr Headers) (*VerifiedEvent, error) {
	if hdr.ID == "" || hdr.Timestamp == "" || hdr.Signature == "" {
		return nil, ErrMissingHeaders
	}

	ts, err := strconv.ParseInt(hdr.Timestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimestamp, hdr.Timestamp)
	}
	age := v.now().Sub(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return nil, fmt.Errorf("%w: delivery is %v old", ErrTimestampOutOfRange, age)
	}

	if !v.matchSignature(hdr.ID, hdr.Timestamp, payload, hdr.Signature) {
		return nil, ErrSignatureMismatch
	}

	// Only now is the payload trusted enough to parse.
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}

	verified := &VerifiedEvent{ID: hdr.ID, Event: ev}
	encoded, err := json.Marshal(verified)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	prior, duplicate, err := v.replay.Remember(ctx, hdr.ID, encoded)
	if err != nil {
		return nil, err
	}
	if duplicate {
		var cached VerifiedEvent
		if err := json.Unmarshal(prior, &cached); err != nil {
			return nil, fmt.Errorf("%w: cached event corrupted: %v", ErrReplayStore, err)
		}
		cached.Duplicate = true
		v.logger.DebugContext(ctx, "duplicate delivery",
			slog.String("id", hdr.ID), slog.String("type", string(cached.Type)))
		return &cached, nil
	}

	return verified, nil
}

// Forget drops a remembered delivery id so the provider's redelivery of it
// is processed again. The HTTP handler uses this when a downstream handler
// fails after the id was recorded.
func (v *Verifier) Forget(ctx context.Context, id string) error {
	return v.replay.Forget(ctx, id)
}

// matchSignature computes HMAC-SHA256 over "id.timestamp.payload" for each
// configured secret and compares, in constant time, against every supported
// version candidate in the signature header.
func (v *Verifier) matchSignature(id, timestamp string, payload []byte, header string) bool {
	signed := make([]byte, 0, len(id)+len(timestamp)+len(payload)+2)
	signed = append(signed, id...)
	signed = append(signed, '.')
	signed = append(signed, timestamp...)
	signed = append(signed, '.')
	signed = append(signed, payload...)

	var matched bool
	for _, secret := range v.secrets {
		mac := hmac.New(sha256.New, secret)
		mac.Write(signed)
		expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

		for _, candidate := range strings.Fields(header) {
			version, sig, ok := strings.Cut(candidate, ",")
			if !ok || version != "v1" {
				continue
			}
			// Evaluate every candidate even after a match to keep the
			// comparison count independent of the input.
			if hmac.Equal([]byte(expected), []byte(sig)) {
				matched = true
			}
		}
	}
	return matched
}
