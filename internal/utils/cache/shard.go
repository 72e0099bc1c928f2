package cache

import "sync"

type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func newShard[K comparable, V any]() *shard[K, V] {
	return &shard[K, V]{m: make(map[K]V)}
}

func (s *shard[K, V]) set(k K, v V) {
	s.mu.Lock()
	s.m[k] = v
	s.mu.Unlock()
}

func (s *shard[K, V]) get(k K) (V, bool) {
	s.mu.RLock()
	v, ok := s.m[k]
	s.mu.RUnlock()
	return v, ok
}

func (s *shard[K, V]) del(k K) {
	s.mu.Lock()
	delete(s.m, k)
	s.mu.Unlock()
}

func (s *shard[K, V]) copyInto(dst map[K]V) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.m {
		dst[k] = v
	}
}

func (s *shard[K, V]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *shard[K, V]) clear() {
	s.mu.Lock()
	s.m = make(map[K]V)
	s.mu.Unlock()
}
