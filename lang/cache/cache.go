// Package cache provides a concurrency-safe LRU cache keyed by strings.
//
// Keys are hashed with xxh3 and the hash indexes the entries; each entry
// keeps its original key so that a hash collision is treated as a miss and
// never returns a value stored under a different key.
//
// The expression engine uses it for parsed expressions keyed by source and
// options, and for compiled regular expressions used by "matches".
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 256

type entry[V any] struct {
	value V
	key   string
	hash  uint64
}

// Cache is an LRU cache of values of type V. The zero value is not usable;
// create caches with [New].
type Cache[V any] struct {
	items    map[uint64]*list.Element
	ll       *list.List
	hits     atomic.Uint64
	misses   atomic.Uint64
	mu       sync.Mutex
	capacity int
}

// New returns a cache holding at most capacity entries.
func New[V any](capacity int) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Cache[V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[uint64]*list.Element, capacity),
	}
}

// Key hashes the given parts into a single cache key. Parts are separated
// so that ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) string {
	h := xxh3.New()

	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}

	sum := h.Sum128().Bytes()

	return string(sum[:])
}

// Get returns the value stored under key and marks it most recently used.
func (c *Cache[V]) Get(key string) (V, bool) {
	h := xxh3.HashString(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[h]; ok {
		if e := el.Value.(*entry[V]); e.key == key {
			c.ll.MoveToFront(el)
			c.hits.Add(1)

			return e.value, true
		}
	}

	c.misses.Add(1)

	var zero V

	return zero, false
}

// Put stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *Cache[V]) Put(key string, value V) {
	h := xxh3.HashString(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[h]; ok {
		e := el.Value.(*entry[V])
		e.key, e.value = key, value
		c.ll.MoveToFront(el)

		return
	}

	if c.ll.Len() >= c.capacity {
		if last := c.ll.Back(); last != nil {
			c.ll.Remove(last)
			delete(c.items, last.Value.(*entry[V]).hash)
		}
	}

	c.items[h] = c.ll.PushFront(&entry[V]{key: key, hash: h, value: value})
}

// GetOrCreate returns the value stored under key, or calls create, stores
// its result, and returns it. Errors are not cached.
func (c *Cache[V]) GetOrCreate(key string, create func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := create()
	if err != nil {
		return v, err
	}

	c.Put(key, v)

	return v, nil
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ll.Len()
}

// Clear removes every entry and resets the statistics.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	clear(c.items)
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns the number of lookup hits and misses.
func (c *Cache[V]) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
