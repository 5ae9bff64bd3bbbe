package cache

import (
	"container/list"
	"sync"
	"time"
)

type ttlEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// TTL is a thread-safe LRU cache whose entries expire after a fixed
// duration. When the cache reaches capacity, the least recently used entry
// is evicted regardless of its remaining lifetime.
type TTL[K comparable, V any] struct {
	capacity int
	ttl      time.Duration
	items    map[K]*list.Element
	eviction *list.List
	mu       sync.Mutex

	// now is swapped in tests to drive expiry deterministically.
	now func() time.Time
}

// NewTTL creates a cache holding at most capacity entries, each living for
// ttl after insertion. Capacity and ttl must be positive, otherwise it panics.
func NewTTL[K comparable, V any](capacity int, ttl time.Duration) *TTL[K, V] {
	if capacity <= 0 {
		panic("cache: capacity must be positive")
	}
	if ttl <= 0 {
		panic("cache: ttl must be positive")
	}
	return &TTL[K, V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[K]*list.Element),
		eviction: list.New(),
		now:      time.Now,
	}
}

// Get retrieves a live value and marks it as recently used.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	entry := elem.Value.(*ttlEntry[K, V])
	if c.now().After(entry.expiresAt) {
		c.removeElement(elem)
		var zero V
		return zero, false
	}
	c.eviction.MoveToFront(elem)
	return entry.value, true
}

// Put inserts or refreshes a value, resetting its expiry. The previous live
// value is returned when one existed.
func (c *TTL[K, V]) Put(key K, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*ttlEntry[K, V])
		old, alive := entry.value, !now.After(entry.expiresAt)
		entry.value = value
		entry.expiresAt = now.Add(c.ttl)
		c.eviction.MoveToFront(elem)
		if alive {
			return old, true
		}
		var zero V
		return zero, false
	}

	elem := c.eviction.PushFront(&ttlEntry[K, V]{key: key, value: value, expiresAt: now.Add(c.ttl)})
	c.items[key] = elem

	if c.eviction.Len() > c.capacity {
		// Prefer reclaiming an expired entry over evicting a live one.
		if !c.sweepOneExpired(now) {
			if oldest := c.eviction.Back(); oldest != nil {
				c.removeElement(oldest)
			}
		}
	}

	var zero V
	return zero, false
}

// PutIfAbsent inserts value only when no live entry exists for key.
// It returns the existing live value and false when the key was taken,
// or the inserted value and true when the insert won. The check and insert
// are atomic, which is what the replay cache needs to deduplicate
// concurrent redeliveries.
func (c *TTL[K, V]) PutIfAbsent(key K, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*ttlEntry[K, V])
		if !now.After(entry.expiresAt) {
			c.eviction.MoveToFront(elem)
			return entry.value, false
		}
		c.removeElement(elem)
	}

	elem := c.eviction.PushFront(&ttlEntry[K, V]{key: key, value: value, expiresAt: now.Add(c.ttl)})
	c.items[key] = elem
	if c.eviction.Len() > c.capacity {
		if !c.sweepOneExpired(now) {
			if oldest := c.eviction.Back(); oldest != nil {
				c.removeElement(oldest)
			}
		}
	}
	return value, true
}

// Remove drops an entry regardless of its expiry state.
func (c *TTL[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*ttlEntry[K, V])
		c.removeElement(elem)
		return entry.value, true
	}
	var zero V
	return zero, false
}

// Len reports the number of stored entries, expired ones included until
// they are swept.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// Sweep removes every expired entry and reports how many were dropped.
func (c *TTL[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var dropped int
	for elem := c.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if entry := elem.Value.(*ttlEntry[K, V]); now.After(entry.expiresAt) {
			c.removeElement(elem)
			dropped++
		}
		elem = prev
	}
	return dropped
}

// sweepOneExpired removes a single expired entry scanning from the LRU end.
// Must be called with the lock held.
func (c *TTL[K, V]) sweepOneExpired(now time.Time) bool {
	for elem := c.eviction.Back(); elem != nil; elem = elem.Prev() {
		if entry := elem.Value.(*ttlEntry[K, V]); now.After(entry.expiresAt) {
			c.removeElement(elem)
			return true
		}
	}
	return false
}

// Must be called with the lock held.
func (c *TTL[K, V]) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	entry := elem.Value.(*ttlEntry[K, V])
	delete(c.items, entry.key)
}
