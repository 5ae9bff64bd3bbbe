// Package cache provides a thread-safe LRU cache with per-entry expiry.
//
// It backs the webhook replay cache, where entries must outlive the
// provider's redelivery horizon but never grow without bound, and is
// generic enough for any bounded lookaside use.
//
//	c := cache.NewTTL[string, int](1024, time.Hour)
//	c.Put("k", 42)
//	v, ok := c.Get("k") // ok is false once the entry expires or is evicted
//
// Expired entries are dropped lazily on access and swept opportunistically
// during writes; no background goroutine is started.
package cache
