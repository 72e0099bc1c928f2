// Package cache is a sharded in-memory map for hot row caches. Keys
// hash with xxhash so shard choice stays stable and cheap.
package cache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

type Cache[K comparable, V any] struct {
	shards []*shard[K, V]
	mask   uint64
}

// New builds a cache with at least the given shard count, rounded up
// to the next power of two so the mask covers every shard.
// Non-positive counts fall back to a single shard.
func New[K comparable, V any](shards int) *Cache[K, V] {
	if shards <= 0 {
		shards = 1
	}
	n := 1
	for n < shards {
		n <<= 1
	}
	shards = n
	c := &Cache[K, V]{
		shards: make([]*shard[K, V], shards),
		mask:   uint64(shards - 1),
	}
	for i := range c.shards {
		c.shards[i] = newShard[K, V]()
	}
	return c
}

func (c *Cache[K, V]) shardFor(k K) *shard[K, V] {
	h := xxhash.Sum64String(fmt.Sprintf("%v", k))
	return c.shards[h&c.mask]
}

func (c *Cache[K, V]) Set(k K, v V) {
	c.shardFor(k).set(k, v)
}

func (c *Cache[K, V]) Get(k K) (V, bool) {
	return c.shardFor(k).get(k)
}

// GetAll snapshots every entry. Mutating the returned map does not
// affect the cache.
func (c *Cache[K, V]) GetAll() map[K]V {
	out := make(map[K]V)
	for _, s := range c.shards {
		s.copyInto(out)
	}
	return out
}

func (c *Cache[K, V]) Del(ks ...K) {
	for _, k := range ks {
		c.shardFor(k).del(k)
	}
}

func (c *Cache[K, V]) Len() int {
	var n int
	for _, s := range c.shards {
		n += s.len()
	}
	return n
}

func (c *Cache[K, V]) Clear() {
	for _, s := range c.shards {
		s.clear()
	}
}
