// Package cell provides Cell, a handle to one mutable value shared between
// goroutines. Handles are duplicated with Dup; every duplicate reaches the same
// value through the same reader/writer lock, so a write through any handle is
// visible through all of them once its guard is released.
//
// Access goes through scoped guards (Read, Write) or through the convenience
// methods Snapshot, Replace and Update. Locks are never poisoned: a panic while
// a guard is held leaves the value as it was at the time of the panic and the
// cell usable by later callers.
package cell
