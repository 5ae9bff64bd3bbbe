// Package mail defines the transactional email data model shared by the
// dispatch client and its collaborators: single requests, batches, and the
// client-side validation that mirrors the remote provider's constraints.
//
// The provider applies a batch atomically - a single invalid element fails
// the whole submission. Validating locally before any network call turns a
// guaranteed-failed round trip into an immediate, per-field diagnostic.
//
// # Validation
//
// Validate checks a single request against single-send rules; ValidateBatch
// additionally enforces batch cardinality and rejects fields that are not
// allowed in batch context (attachments, scheduled_at). Both return
// ValidationErrors, a slice of per-field violations carrying the element
// index for batches:
//
//	if err := mail.ValidateBatch(batch); err != nil {
//	    var verrs mail.ValidationErrors
//	    if errors.As(err, &verrs) {
//	        for _, v := range verrs {
//	            log.Printf("element %d, field %s: %s", v.Index, v.Field, v.Message)
//	        }
//	    }
//	}
//
// # Fingerprints
//
// Fingerprint and BatchFingerprint produce a stable SHA-256 hash over the
// normalized request content. The idempotency store uses it to distinguish
// a safe re-submission (same key, same payload) from a key-reuse conflict
// (same key, different payload).
package mail
