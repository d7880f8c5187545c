// Package lock provides the reader/writer lock used by tspawn cells. Any number
// of readers or a single writer may hold the lock at a time. Waiters are served
// in arrival order, so a queued writer holds back readers that arrive after it
// and cannot be starved. Blocking acquisitions have context-aware and
// non-blocking variants.
package lock
