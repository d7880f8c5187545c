package lock

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds the number of concurrent readers. A writer acquires the
// whole weight.
const maxReaders = 1 << 30

// RW is a reader/writer lock backed by a weighted semaphore. The zero value is
// an unlocked lock. A RW must not be copied after first use.
//
// A goroutine holding a read lock must not acquire it again: if a writer is
// queued in between, the second acquisition waits behind the writer, which in
// turn waits for the first read lock to be released.
type RW struct {
	once sync.Once
	sem  *semaphore.Weighted
}

// NewRW returns an unlocked RW.
func NewRW() *RW {
	l := &RW{}
	l.weighted()
	return l
}

func (l *RW) weighted() *semaphore.Weighted {
	l.once.Do(func() {
		l.sem = semaphore.NewWeighted(maxReaders)
	})
	return l.sem
}

// RLock blocks until the lock can be held for reading.
func (l *RW) RLock() {
	_ = l.weighted().Acquire(context.Background(), 1)
}

// RUnlock releases a read lock. It panics if l is not held for reading.
func (l *RW) RUnlock() {
	l.weighted().Release(1)
}

// Lock blocks until the lock can be held for writing.
func (l *RW) Lock() {
	_ = l.weighted().Acquire(context.Background(), maxReaders)
}

// Unlock releases a write lock. It panics if l is not held for writing.
func (l *RW) Unlock() {
	l.weighted().Release(maxReaders)
}

// RLockContext acquires a read lock, blocking until it is available or ctx is
// done. On failure it returns ctx.Err() and holds nothing.
func (l *RW) RLockContext(ctx context.Context) error {
	return l.weighted().Acquire(ctx, 1)
}

// LockContext acquires the write lock, blocking until it is available or ctx
// is done. On failure it returns ctx.Err() and holds nothing.
func (l *RW) LockContext(ctx context.Context) error {
	return l.weighted().Acquire(ctx, maxReaders)
}

// TryRLock acquires a read lock without waiting. It fails when a writer holds
// the lock or is queued for it.
func (l *RW) TryRLock() bool {
	return l.weighted().TryAcquire(1)
}

// TryLock acquires the write lock without waiting.
func (l *RW) TryLock() bool {
	return l.weighted().TryAcquire(maxReaders)
}
