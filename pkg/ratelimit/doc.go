// Package ratelimit provides a local token bucket used by the dispatch
// client to stay under the provider's request rate (documented at roughly
// two requests per second).
//
//	bucket := ratelimit.NewBucket(ratelimit.Config{
//	    Capacity:       2,
//	    RefillRate:     2,
//	    RefillInterval: time.Second,
//	})
//	if err := bucket.Wait(ctx); err != nil {
//	    return err
//	}
//	// perform one network attempt
//
// Wait blocks until a token is available or ctx is done. The bucket only
// shapes this process's own traffic; it is not a substitute for honoring
// 429 responses, which the retry layer handles.
package ratelimit
