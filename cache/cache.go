// Package cache holds size-bounded in-memory caches shared by the API, the
// chain reader and the refresh worker.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a least-recently-used cache for values that never go stale, such
// as the contract address a deployment transaction created.
type Cache[K comparable, V any] struct {
	lru *lru.Cache[K, V]
}

func New[K comparable, V any](maxSize int) *Cache[K, V] {
	c, err := lru.New[K, V](maxSize)
	if err != nil {
		panic(fmt.Sprintf("cache size %d: %v", maxSize, err))
	}
	return &Cache[K, V]{lru: c}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

// Lookup returns the cached values by key and the keys that missed, in input
// order. Repeated keys are reported once.
func (c *Cache[K, V]) Lookup(keys []K) (map[K]V, []K) {
	found := make(map[K]V, len(keys))
	seen := make(map[K]struct{}, len(keys))
	var missing []K
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if v, ok := c.lru.Get(key); ok {
			found[key] = v
			continue
		}
		missing = append(missing, key)
	}
	return found, missing
}

func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}
