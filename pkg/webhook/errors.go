package webhook

import "errors"

var (
	// ErrInvalidConfig indicates the verifier cannot be constructed.
	ErrInvalidConfig = errors.New("webhook: invalid config")
	// ErrMissingHeaders means the delivery lacks the id, timestamp or
	// signature header.
	ErrMissingHeaders = errors.New("webhook: missing signature headers")
	// ErrInvalidTimestamp means the timestamp header is not a unix epoch.
	ErrInvalidTimestamp = errors.New("webhook: invalid timestamp header")
	// ErrTimestampOutOfRange means the delivery is older or newer than the
	// tolerance window allows.
	ErrTimestampOutOfRange = errors.New("webhook: timestamp outside tolerance window")
	// ErrSignatureMismatch means no signature candidate matched any
	// configured secret. The delivery must not be processed.
	ErrSignatureMismatch = errors.New("webhook: signature mismatch")
	// ErrMalformedPayload means the payload verified but is not a valid
	// event document. Permanently malformed: log and drop rather than
	// let the provider redeliver it for a day.
	ErrMalformedPayload = errors.New("webhook: malformed event payload")
	// ErrNoHandler is returned by Route when neither a type handler nor a
	// fallback is registered. Not a failure: unknown types keep flowing.
	ErrNoHandler = errors.New("webhook: no handler registered for event type")
	// ErrReplayStore wraps replay cache backend failures.
	ErrReplayStore = errors.New("webhook: replay store failure")
)
