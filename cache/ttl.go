package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TTLCache evicts entries once they are older than its ttl, or least recently
// used when full.
type TTLCache[K comparable, V any] struct {
	cache *expirable.LRU[K, V]
}

func NewTTL[K comparable, V any](maxSize int, ttl time.Duration) *TTLCache[K, V] {
	c := expirable.NewLRU[K, V](maxSize, nil, ttl)
	return &TTLCache[K, V]{cache: c}
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	return c.cache.Get(key)
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.cache.Add(key, value)
}

func (c *TTLCache[K, V]) Remove(key K) {
	c.cache.Remove(key)
}

func (c *TTLCache[K, V]) Len() int {
	return c.cache.Len()
}

// GetMany splits keys into cached values and keys that missed, keeping the
// order of keys in both.
func (c *TTLCache[K, V]) GetMany(keys []K) ([]V, []K) {
	hits := make([]V, 0, len(keys))
	var misses []K
	for _, key := range keys {
		if v, ok := c.cache.Get(key); ok {
			hits = append(hits, v)
			continue
		}
		misses = append(misses, key)
	}
	return hits, misses
}

// Values returns the live entries, oldest first.
func (c *TTLCache[K, V]) Values() []V {
	return c.cache.Values()
}
