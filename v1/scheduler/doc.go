// Package scheduler is the execution boundary used by spawn: a Scheduler
// accepts a Task and returns a Handle that can be awaited. Two implementations
// are provided, one goroutine per task (Go) and a bounded pool (Pool); other
// executors can be plugged in by implementing Scheduler and completing handles
// with Run or Handle.Finish.
package scheduler
