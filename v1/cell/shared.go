package cell

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mirkobrombin/go-tspawn/v1/lock"
	"github.com/mirkobrombin/go-tspawn/v1/metrics"
)

const (
	modeRead  = "read"
	modeWrite = "write"
)

// Shared is the reference-counted lock and value behind a set of Cell
// handles. It is exposed for interoperability with code that builds the lock
// itself; see FromRaw and Cell.IntoRaw.
//
// The reference count tracks Cell handles, live guards and references
// returned by IntoRaw. Ptr may be dereferenced only while holding the lock in
// the matching mode.
type Shared[T any] struct {
	mu        lock.RW
	refs      atomic.Int64
	value     T
	onRelease func(T)
}

// Option configures the shared value of a new Cell.
type Option[T any] func(*Shared[T])

// WithOnRelease registers fn to run, under the write lock, when the last
// handle to the value is dropped. The value is zeroed afterwards.
func WithOnRelease[T any](fn func(T)) Option[T] {
	return func(s *Shared[T]) {
		s.onRelease = fn
	}
}

// NewShared returns an unreferenced shared value. Wrap it with FromRaw, which
// takes the first reference.
func NewShared[T any](v T, opts ...Option[T]) *Shared[T] {
	s := &Shared[T]{value: v}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RLock locks s for reading.
func (s *Shared[T]) RLock() { s.rlock() }

// RUnlock undoes a single RLock call.
func (s *Shared[T]) RUnlock() { s.mu.RUnlock() }

// Lock locks s for writing.
func (s *Shared[T]) Lock() { s.wlock() }

// Unlock unlocks s for writing.
func (s *Shared[T]) Unlock() { s.mu.Unlock() }

// Ptr returns a pointer to the protected value.
func (s *Shared[T]) Ptr() *T { return &s.value }

// Refs reports the number of handles, guards and raw references to s.
func (s *Shared[T]) Refs() int64 { return s.refs.Load() }

func (s *Shared[T]) retain() {
	if s.refs.Add(1) == 1 {
		metrics.CellGauge.Inc()
	}
}

// tryRetain takes a reference unless the value was already released.
func (s *Shared[T]) tryRetain() bool {
	for {
		n := s.refs.Load()
		if n <= 0 {
			return false
		}
		if s.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release gives up a reference held in raw form, such as the one returned by
// Cell.IntoRaw. The last reference runs the release hook and clears the
// value.
func (s *Shared[T]) Release() { s.release() }

// release drops one reference. The last one runs the release hook and clears
// the value.
func (s *Shared[T]) release() {
	if s.refs.Add(-1) != 0 {
		return
	}
	metrics.CellGauge.Dec()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onRelease != nil {
		s.onRelease(s.value)
	}
	var zero T
	s.value = zero
}

func (s *Shared[T]) rlock() {
	start := time.Now()
	s.mu.RLock()
	observe(modeRead, start)
}

func (s *Shared[T]) wlock() {
	start := time.Now()
	s.mu.Lock()
	observe(modeWrite, start)
}

func (s *Shared[T]) rlockContext(ctx context.Context) error {
	start := time.Now()
	if err := s.mu.RLockContext(ctx); err != nil {
		return err
	}
	observe(modeRead, start)
	return nil
}

func (s *Shared[T]) wlockContext(ctx context.Context) error {
	start := time.Now()
	if err := s.mu.LockContext(ctx); err != nil {
		return err
	}
	observe(modeWrite, start)
	return nil
}

func observe(mode string, start time.Time) {
	metrics.AcquireCounter.WithLabelValues(mode).Inc()
	metrics.AcquireWait.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
