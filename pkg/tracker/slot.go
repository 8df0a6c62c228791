package tracker

import "sync"

// slot holds the most recent value published by the worker. Each slot has
// its own lock, so a reader of one slot never waits on the other.
type slot[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
}

func (s *slot[T]) store(v T, version uint64) {
	s.mu.Lock()
	s.value = v
	s.version = version
	s.mu.Unlock()
}

// load returns the value and the version it was stored with. Version 0
// means nothing has been published yet.
func (s *slot[T]) load() (T, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.version
}
