package spawn

import (
	"context"
	"log/slog"

	uuid "github.com/hashicorp/go-uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mirkobrombin/go-tspawn/v1/metrics"
	"github.com/mirkobrombin/go-tspawn/v1/scheduler"
)

const tracerName = "github.com/mirkobrombin/go-tspawn/v1/spawn"

// Body is the code of a task. env gives access to the bindings declared for
// the launch.
type Body func(ctx context.Context, env *Env) error

// Spawner binds variables and submits tasks to a scheduler.
type Spawner struct {
	sched  scheduler.Scheduler
	logger *slog.Logger
	tracer trace.Tracer
	id     string
}

// Option configures a Spawner.
type Option func(*Spawner)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Spawner) {
		s.logger = l
	}
}

// WithTracing enables OpenTelemetry spans using the global tracer provider.
func WithTracing() Option {
	return func(s *Spawner) {
		s.tracer = otel.Tracer(tracerName)
	}
}

// WithTracerProvider enables OpenTelemetry spans using tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Spawner) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// New returns a Spawner submitting to sched. A nil sched starts one goroutine
// per task.
func New(sched scheduler.Scheduler, opts ...Option) *Spawner {
	if sched == nil {
		sched = scheduler.NewGo()
	}
	id, err := uuid.GenerateUUID()
	if err != nil {
		id = "unknown"
	}
	s := &Spawner{sched: sched, logger: slog.Default(), id: id}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the spawner instance id reported in traces.
func (s *Spawner) ID() string { return s.id }

// Go compiles vars and launches body with them. The returned error reports an
// invalid launch list or a dropped cell, in which case nothing was submitted.
// The result of the task itself is reported through the handle.
func (s *Spawner) Go(ctx context.Context, body Body, vars ...Var) (*scheduler.Handle, error) {
	p, err := Compile(vars...)
	if err != nil {
		return nil, err
	}
	return s.Spawn(ctx, p, body)
}

// Launch parses decl, resolves it against scope and launches body.
func (s *Spawner) Launch(ctx context.Context, scope *Scope, decl string, body Body) (*scheduler.Handle, error) {
	decls, err := ParseDecl(decl)
	if err != nil {
		return nil, err
	}
	vars, err := scope.Resolve(decls)
	if err != nil {
		return nil, err
	}
	return s.Go(ctx, body, vars...)
}

// Spawn launches body with the bindings of a compiled plan. Handles are
// duplicated before Spawn returns; locks are taken by the task. A plan whose
// cells were dropped after Compile fails with errors.ErrDropped and nothing
// is submitted.
func (s *Spawner) Spawn(ctx context.Context, p *Plan, body Body) (*scheduler.Handle, error) {
	env, err := p.bind()
	if err != nil {
		return nil, err
	}
	for _, v := range p.vars {
		metrics.BindingCounter.WithLabelValues(v.Mode().String()).Inc()
	}
	metrics.TaskCounter.Inc()
	h := s.sched.Submit(ctx, func(ctx context.Context) error {
		return s.run(ctx, env, body)
	})
	s.logger.Debug("tspawn: task submitted", "task", h.ID(), "bindings", p.String())
	return h, nil
}

func (s *Spawner) run(ctx context.Context, env *Env, body Body) (err error) {
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "Spawn.Task", trace.WithAttributes(
			attribute.String("tspawn.spawner.id", s.id),
			attribute.Int("tspawn.bindings", env.plan.Len()),
			attribute.Int("tspawn.locks", env.plan.Locks()),
			attribute.String("tspawn.decl", env.plan.String()),
		))
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()
	}
	defer env.drop()

	if err := s.bind(ctx, env); err != nil {
		s.logger.Warn("tspawn: binding failed", "bindings", env.plan.String(), "error", err)
		return err
	}
	defer env.unlock()
	return body(ctx, env)
}

func (s *Spawner) bind(ctx context.Context, env *Env) error {
	if s.tracer == nil || len(env.locks) == 0 {
		return env.acquire(ctx)
	}
	ctx, span := s.tracer.Start(ctx, "Spawn.Bind")
	defer span.End()
	if err := env.acquire(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Go launches body on sched with a default Spawner.
func Go(ctx context.Context, sched scheduler.Scheduler, body Body, vars ...Var) (*scheduler.Handle, error) {
	return New(sched).Go(ctx, body, vars...)
}
