package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/mirkobrombin/go-tspawn/v1/errors"
	"github.com/mirkobrombin/go-tspawn/v1/metrics"
)

// Task is a unit of work. It should return promptly with ctx.Err() once ctx
// is done.
type Task func(ctx context.Context) error

// Scheduler runs tasks and hands back a Handle for each of them.
type Scheduler interface {
	Submit(ctx context.Context, t Task) *Handle
}

// Option configures a scheduler.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report panicking tasks.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Run executes t on the calling goroutine and finishes h with its result. A
// panic in t is recovered and reported as an error wrapping
// errors.ErrTaskPanicked.
func Run(ctx context.Context, h *Handle, t Task, logger *slog.Logger) {
	var err error
	metrics.ActiveTaskGauge.Inc()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrTaskPanicked, r)
			if logger != nil {
				logger.Warn("tspawn: task panicked", "task", h.ID(), "panic", r, "stack", string(debug.Stack()))
			}
			metrics.TaskFailureCounter.WithLabelValues("panic").Inc()
		} else if err != nil {
			metrics.TaskFailureCounter.WithLabelValues("error").Inc()
		}
		metrics.ActiveTaskGauge.Dec()
		h.Finish(err)
	}()
	err = t(ctx)
}

// Go starts one goroutine per task.
type Go struct {
	opts options
}

// NewGo returns a goroutine-per-task scheduler.
func NewGo(opts ...Option) *Go {
	return &Go{opts: newOptions(opts)}
}

// Submit implements Scheduler.Submit.
func (g *Go) Submit(ctx context.Context, t Task) *Handle {
	h := NewHandle()
	go Run(ctx, h, t, g.opts.logger)
	return h
}

// Pool runs at most a fixed number of tasks at once. Submit blocks while
// every worker is busy, so a task must not submit to the pool it runs on and
// then wait for the result.
type Pool struct {
	opts    options
	workers int
	g       errgroup.Group
}

// NewPool returns a pool with the given number of workers. A non-positive
// value means runtime.GOMAXPROCS(0).
func NewPool(workers int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{opts: newOptions(opts), workers: workers}
	p.g.SetLimit(workers)
	return p
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }

// Submit implements Scheduler.Submit.
func (p *Pool) Submit(ctx context.Context, t Task) *Handle {
	h := NewHandle()
	p.g.Go(func() error {
		Run(ctx, h, t, p.opts.logger)
		return nil
	})
	return h
}

// Wait blocks until every task submitted so far has finished.
func (p *Pool) Wait() {
	_ = p.g.Wait()
}

var (
	_ Scheduler = (*Go)(nil)
	_ Scheduler = (*Pool)(nil)
)
