package cell

import (
	"sync/atomic"

	"github.com/mirkobrombin/go-tspawn/v1/errors"
)

// ReadGuard holds a read lock on a cell until Release is called. The guard
// keeps the value alive even if every handle is dropped in the meantime.
type ReadGuard[T any] struct {
	s        *Shared[T]
	released atomic.Bool
}

// Value returns a copy of the guarded value.
func (g *ReadGuard[T]) Value() T {
	return *g.Ptr()
}

// Ptr returns a pointer to the guarded value. It must not be written through.
func (g *ReadGuard[T]) Ptr() *T {
	if g.released.Load() {
		panic(errors.ErrGuardReleased)
	}
	return &g.s.value
}

// Release unlocks the cell. Further calls are no-ops.
func (g *ReadGuard[T]) Release() {
	if !g.released.CompareAndSwap(false, true) {
		return
	}
	g.s.mu.RUnlock()
	g.s.release()
}

// WriteGuard holds the write lock on a cell until Release is called.
type WriteGuard[T any] struct {
	s        *Shared[T]
	released atomic.Bool
}

// Value returns a copy of the guarded value.
func (g *WriteGuard[T]) Value() T {
	return *g.Ptr()
}

// Ptr returns a pointer to the guarded value.
func (g *WriteGuard[T]) Ptr() *T {
	if g.released.Load() {
		panic(errors.ErrGuardReleased)
	}
	return &g.s.value
}

// Set replaces the guarded value.
func (g *WriteGuard[T]) Set(v T) {
	*g.Ptr() = v
}

// Release unlocks the cell. Further calls are no-ops.
func (g *WriteGuard[T]) Release() {
	if !g.released.CompareAndSwap(false, true) {
		return
	}
	g.s.mu.Unlock()
	g.s.release()
}
