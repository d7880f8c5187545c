package scheduler

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Handle tracks the completion of one submitted task.
type Handle struct {
	id   string
	done chan struct{}
	once sync.Once
	err  error
}

// NewHandle returns a pending handle with a fresh id.
func NewHandle() *Handle {
	return &Handle{id: uuid.NewString(), done: make(chan struct{})}
}

// ID returns the task id.
func (h *Handle) ID() string { return h.id }

// Done is closed when the task finishes.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Finish records the task result and wakes waiters. Only the first call has
// an effect.
func (h *Handle) Finish(err error) {
	h.once.Do(func() {
		h.err = err
		close(h.done)
	})
}

// Err returns the task result, or nil while the task is still running.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes and returns its result. If ctx is done
// first, ctx.Err() is returned and the task keeps running.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitAll waits for every handle and returns the first error encountered.
func WaitAll(ctx context.Context, hs ...*Handle) error {
	var first error
	for _, h := range hs {
		if err := h.Wait(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
