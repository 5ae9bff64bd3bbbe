// Package idempotency tracks which logical dispatch operations have already
// been submitted, so a retried call with the same key never produces a
// duplicate email.
//
// A caller reserves a key together with a fingerprint of the payload before
// touching the network. Reserve is an atomic check-and-set: of two
// concurrent callers racing on the same key exactly one observes a fresh
// reservation and proceeds to dispatch, while the other blocks until the
// first commits and then observes the stored outcome. A key seen with a
// different payload fingerprint is a conflict and is reported immediately,
// without waiting.
//
//	res, err := store.Reserve(ctx, key, fingerprint)
//	switch {
//	case err != nil:
//	    return err
//	case res.State == idempotency.StateDuplicate:
//	    return decode(res.Outcome) // no network call
//	case res.State == idempotency.StateConflict:
//	    return ErrConflict
//	}
//	outcome, err := dispatch(ctx)
//	if err == nil {
//	    _ = store.Commit(ctx, key, encode(outcome))
//	}
//
// Terminal outcomes are recorded with Commit and replayed to later callers.
// A spent retry budget is recorded with Fail: the key stays reserved (the
// remote may have processed an attempt whose response was lost), but a
// later call with the identical payload is allowed to dispatch again under
// the same key, letting the remote deduplicate. Release drops a reservation
// that never made a network attempt, e.g. on early cancellation.
//
// Entries expire 24 hours after creation, matching the provider's own key
// expiry; after that the key may be legitimately reused.
//
// Two implementations are provided: MemoryStore for single-process use and
// tests, and RedisStore for deployments where replicas share state.
package idempotency
