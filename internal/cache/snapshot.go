package cache

import (
	"sync"
	"time"
)

// SnapshotStore holds one versioned value per key. A key's generation
// increases monotonically on every invalidation, so a writer that
// invalidates after a successful append gives readers explicit
// read-your-writes: the next Get misses and the caller refetches under
// the new generation. The TTL is only a staleness bound for writes made
// by other processes, not the invalidation mechanism.
type SnapshotStore[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*snapshotEntry[T]

	janitorOnce sync.Once
	stopJanitor chan struct{}
	janitorDone chan struct{}
	stopOnce    sync.Once
}

type snapshotEntry[T any] struct {
	data       T
	hasData    bool
	generation uint64
	fetchedAt  time.Time
}

// NewSnapshotStore creates a snapshot store. ttl <= 0 disables the
// staleness bound; entries then live until invalidated.
func NewSnapshotStore[T any](ttl time.Duration) *SnapshotStore[T] {
	return &SnapshotStore[T]{
		ttl:     ttl,
		entries: make(map[string]*snapshotEntry[T]),
	}
}

// Get returns the cached value and its generation. ok is false when the
// key holds no value or the value is past its staleness bound; the
// returned generation is valid either way and identifies what a
// subsequent Set will be stored under.
func (s *SnapshotStore[T]) Get(key string) (data T, generation uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[key]
	if !exists {
		var zero T
		return zero, 0, false
	}
	if !e.hasData || s.expired(e) {
		var zero T
		return zero, e.generation, false
	}
	return e.data, e.generation, true
}

// Set stores data under the key's current generation and returns it.
func (s *SnapshotStore[T]) Set(key string, data T) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(key)
	e.data = data
	e.hasData = true
	e.fetchedAt = time.Now()
	return e.generation
}

// Invalidate drops the key's value and bumps its generation, returning
// the new generation.
func (s *SnapshotStore[T]) Invalidate(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(key)
	var zero T
	e.data = zero
	e.hasData = false
	e.generation++
	return e.generation
}

// Generation returns the key's current generation without touching the
// cached value.
func (s *SnapshotStore[T]) Generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e.generation
	}
	return 0
}

// CleanExpired drops values past the staleness bound and returns how
// many were removed. Generations are preserved.
func (s *SnapshotStore[T]) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, e := range s.entries {
		if e.hasData && s.expired(e) {
			var zero T
			e.data = zero
			e.hasData = false
			removed++
		}
	}
	return removed
}

// StartCleanup begins dropping expired values in the background every
// interval. A second call is a no-op.
func (s *SnapshotStore[T]) StartCleanup(interval time.Duration) {
	s.janitorOnce.Do(func() {
		s.stopJanitor = make(chan struct{})
		s.janitorDone = make(chan struct{})
		go s.janitor(interval)
	})
}

func (s *SnapshotStore[T]) janitor(interval time.Duration) {
	defer close(s.janitorDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CleanExpired()
		case <-s.stopJanitor:
			return
		}
	}
}

// StopCleanup stops the background cleanup. Safe without a prior
// StartCleanup and safe to call more than once.
func (s *SnapshotStore[T]) StopCleanup() {
	s.stopOnce.Do(func() {
		if s.stopJanitor != nil {
			close(s.stopJanitor)
			<-s.janitorDone
		}
	})
}

// Size returns the number of keys currently holding a value.
func (s *SnapshotStore[T]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.hasData {
			n++
		}
	}
	return n
}

func (s *SnapshotStore[T]) expired(e *snapshotEntry[T]) bool {
	return s.ttl > 0 && time.Since(e.fetchedAt) > s.ttl
}

func (s *SnapshotStore[T]) entry(key string) *snapshotEntry[T] {
	e, ok := s.entries[key]
	if !ok {
		e = &snapshotEntry[T]{}
		s.entries[key] = e
	}
	return e
}
