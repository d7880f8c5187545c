package cell

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mirkobrombin/go-tspawn/v1/errors"
)

// Cloner is implemented by values that need a deep copy when snapshotted.
type Cloner[T any] interface {
	Clone() T
}

// Cell is a handle to a value shared between goroutines.
//
// Handles are cheap: Dup returns a new handle to the same value and lock.
// Create cells with New or FromRaw; the zero Cell is not usable. A handle
// must not be used after Drop or IntoRaw.
type Cell[T any] struct {
	s atomic.Pointer[Shared[T]]
}

// New wraps v in a new cell.
func New[T any](v T, opts ...Option[T]) *Cell[T] {
	return FromRaw(NewShared(v, opts...))
}

// FromRaw returns a new handle to s, taking a reference on it.
func FromRaw[T any](s *Shared[T]) *Cell[T] {
	s.retain()
	return Adopt(s)
}

// Adopt wraps s in a handle that takes over a reference the caller already
// holds, such as the one returned by IntoRaw. No new reference is taken.
func Adopt[T any](s *Shared[T]) *Cell[T] {
	c := &Cell[T]{}
	c.s.Store(s)
	return c
}

// IntoRaw consumes the handle and returns the shared value behind it. The
// handle's reference passes to the caller, who gives it up with
// Shared.Release or hands it back to Adopt.
func (c *Cell[T]) IntoRaw() *Shared[T] {
	s := c.s.Swap(nil)
	if s == nil {
		panic(errors.ErrDropped)
	}
	return s
}

func (c *Cell[T]) shared() *Shared[T] {
	s := c.s.Load()
	if s == nil {
		panic(errors.ErrDropped)
	}
	return s
}

// TryDup is like Dup but reports false instead of panicking when the handle
// was dropped or the value already released.
func (c *Cell[T]) TryDup() (*Cell[T], bool) {
	s := c.s.Load()
	if s == nil || !s.tryRetain() {
		return nil, false
	}
	return Adopt(s), true
}

// Dup returns a new handle to the same value.
func (c *Cell[T]) Dup() *Cell[T] {
	return FromRaw(c.shared())
}

// Drop releases the handle. When it was the last reference, the release hook
// runs and the value is cleared. Dropping a handle twice is a no-op.
func (c *Cell[T]) Drop() {
	if s := c.s.Swap(nil); s != nil {
		s.release()
	}
}

// AsRaw returns the shared value behind the handle without consuming it, or
// nil if the handle was dropped. No reference is taken.
func (c *Cell[T]) AsRaw() *Shared[T] {
	return c.s.Load()
}

// Same reports whether c and other refer to the same value.
func (c *Cell[T]) Same(other *Cell[T]) bool {
	return c.shared() == other.shared()
}

// Refs reports the number of live handles and guards referencing the value.
func (c *Cell[T]) Refs() int64 {
	return c.shared().Refs()
}

// Snapshot returns a copy of the value taken under a read lock. Values
// implementing Cloner are deep copied through Clone; others get an ordinary
// assignment copy.
func (c *Cell[T]) Snapshot() T {
	s := c.shared()
	s.rlock()
	defer s.mu.RUnlock()
	return clone(s.value)
}

// SnapshotOpt returns a pointer to a fresh snapshot. It never returns nil.
func (c *Cell[T]) SnapshotOpt() *T {
	v := c.Snapshot()
	return &v
}

// Replace overwrites the value under the write lock.
func (c *Cell[T]) Replace(v T) {
	s := c.shared()
	s.wlock()
	defer s.mu.Unlock()
	s.value = v
}

// Update calls fn with a pointer to the value while holding the write lock.
// The lock is released when fn returns or panics; in the latter case the value
// is left as fn left it.
func (c *Cell[T]) Update(fn func(*T)) {
	s := c.shared()
	s.wlock()
	defer s.mu.Unlock()
	fn(&s.value)
}

// Read blocks until the value can be read and returns a guard holding the
// read lock.
func (c *Cell[T]) Read() *ReadGuard[T] {
	s := c.shared()
	s.retain()
	s.rlock()
	return &ReadGuard[T]{s: s}
}

// Write blocks until the value can be written and returns a guard holding the
// write lock.
func (c *Cell[T]) Write() *WriteGuard[T] {
	s := c.shared()
	s.retain()
	s.wlock()
	return &WriteGuard[T]{s: s}
}

// ReadContext is like Read but gives up when ctx is done.
func (c *Cell[T]) ReadContext(ctx context.Context) (*ReadGuard[T], error) {
	s := c.shared()
	s.retain()
	if err := s.rlockContext(ctx); err != nil {
		s.release()
		return nil, err
	}
	return &ReadGuard[T]{s: s}, nil
}

// WriteContext is like Write but gives up when ctx is done.
func (c *Cell[T]) WriteContext(ctx context.Context) (*WriteGuard[T], error) {
	s := c.shared()
	s.retain()
	if err := s.wlockContext(ctx); err != nil {
		s.release()
		return nil, err
	}
	return &WriteGuard[T]{s: s}, nil
}

// TryRead returns a read guard if the lock is available without waiting.
func (c *Cell[T]) TryRead() (*ReadGuard[T], bool) {
	s := c.shared()
	if !s.mu.TryRLock() {
		return nil, false
	}
	s.retain()
	observe(modeRead, time.Now())
	return &ReadGuard[T]{s: s}, true
}

// TryWrite returns a write guard if the lock is available without waiting.
func (c *Cell[T]) TryWrite() (*WriteGuard[T], bool) {
	s := c.shared()
	if !s.mu.TryLock() {
		return nil, false
	}
	s.retain()
	observe(modeWrite, time.Now())
	return &WriteGuard[T]{s: s}, true
}

func clone[T any](v T) T {
	if cl, ok := any(v).(Cloner[T]); ok {
		return cl.Clone()
	}
	return v
}
