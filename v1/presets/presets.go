package presets

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/mirkobrombin/go-tspawn/v1/metrics"
	"github.com/mirkobrombin/go-tspawn/v1/scheduler"
	"github.com/mirkobrombin/go-tspawn/v1/spawn"
)

// InstrumentedOptions configures NewInstrumented.
type InstrumentedOptions struct {
	// Registry receives the core metrics. Nil skips registration.
	Registry prometheus.Registerer
	// Workers bounds concurrency. Zero or less starts one goroutine per task.
	Workers int
	// TracerProvider enables task spans when set.
	TracerProvider trace.TracerProvider
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewDefault returns a Spawner that starts one goroutine per task.
func NewDefault() *spawn.Spawner {
	return spawn.New(scheduler.NewGo())
}

// NewBounded returns a Spawner running at most workers tasks at once.
// Tasks waiting for a free worker do not hold any lock yet.
func NewBounded(workers int) *spawn.Spawner {
	return spawn.New(scheduler.NewPool(workers))
}

// NewInstrumented returns a Spawner wired for metrics, logging and tracing.
func NewInstrumented(opts InstrumentedOptions) *spawn.Spawner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Registry != nil {
		metrics.RegisterCoreMetrics(opts.Registry)
	}

	var sched scheduler.Scheduler
	if opts.Workers > 0 {
		sched = scheduler.NewPool(opts.Workers, scheduler.WithLogger(logger))
	} else {
		sched = scheduler.NewGo(scheduler.WithLogger(logger))
	}

	sopts := []spawn.Option{spawn.WithLogger(logger)}
	if opts.TracerProvider != nil {
		sopts = append(sopts, spawn.WithTracerProvider(opts.TracerProvider))
	}
	return spawn.New(sched, sopts...)
}
