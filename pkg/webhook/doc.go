// Package webhook authenticates and routes the provider's inbound delivery
// events: HMAC-SHA256 signature verification over the raw payload bytes,
// timestamp tolerance against replay and clock-skew abuse, a replay cache
// spanning the provider's redelivery horizon, and a typed router that
// dispatches verified events to registered handlers.
//
// # Verification
//
// The provider signs each delivery with svix-style headers. Verification
// operates on the raw body bytes, never on re-serialized JSON:
//
//	verifier, err := webhook.NewVerifier(cfg)
//	event, err := verifier.Verify(ctx, rawBody, webhook.HeadersFromHTTP(r.Header))
//
// The expected signature is HMAC-SHA256 over "id.timestamp.payload". The
// signature header may carry several space-separated "v1,<sig>" candidates;
// any match against any configured secret verifies, which keeps deliveries
// valid while a signing secret rotation is in progress. Comparison is
// constant-time.
//
// # Replay
//
// The provider redelivers on any non-200 response for up to ~24 hours
// across 8 attempts. A verified event whose id was already seen within the
// retention window comes back with Duplicate set and must not trigger
// downstream side effects again.
//
// # Routing
//
//	router := webhook.NewRouter().
//	    On(webhook.EventBounced, markAddressDead).
//	    On(webhook.EventDelivered, recordDelivery)
//
// Unknown event types are not an error: they fall through to the fallback
// handler when one is registered and are otherwise acknowledged untouched,
// so new provider event kinds never break ingestion.
//
// # HTTP handler
//
// NewHandler wires both into a ready-made callback endpoint that answers
// 200 promptly on verification and enqueue, and non-200 otherwise so the
// provider redelivers. Verified but permanently malformed payloads are
// logged and acknowledged, not bounced back into the redelivery schedule.
package webhook
