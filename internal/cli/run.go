package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gopkg.in/yaml.v3"

	"github.com/mirkobrombin/go-tspawn/v1/metrics"
	"github.com/mirkobrombin/go-tspawn/v1/presets"
	"github.com/mirkobrombin/go-tspawn/v1/workload"
)

type runOptions struct {
	workers     int
	metricsAddr string
	trace       bool
	timeout     time.Duration
}

func newRunCmd() *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run <workload.yaml>",
		Short: "Run a workload and print the final cell values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args[0])
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&o.workers, "workers", "w", -1, "Worker pool size, 0 for one goroutine per task (default from workload)")
	flags.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	flags.BoolVar(&o.trace, "trace", false, "Print task spans to stderr")
	flags.DurationVar(&o.timeout, "timeout", 0, "Abort the run after this duration")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, path string) error {
	wl, err := workload.Load(path)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	popts := presets.InstrumentedOptions{Workers: wl.Workers, Logger: slog.Default()}
	if o.workers >= 0 {
		popts.Workers = o.workers
	}

	if o.metricsAddr != "" {
		reg := metrics.NewRegistry()
		popts.Registry = reg
		stop, err := serveMetrics(o.metricsAddr, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		if err != nil {
			return err
		}
		defer stop()
	}

	if o.trace {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(cmd.ErrOrStderr()), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		defer func() { _ = tp.Shutdown(context.Background()) }()
		popts.TracerProvider = tp
	}

	s := presets.NewInstrumented(popts)
	slog.Info("tspawn: running workload", "path", path, "workers", popts.Workers, "spawner", s.ID())
	res, runErr := workload.Run(ctx, s, wl)
	if res != nil {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	}
	return runErr
}

func serveMetrics(addr string, h http.Handler) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("tspawn: metrics server failed", "error", err)
		}
	}()
	slog.Info("tspawn: serving metrics", "addr", ln.Addr().String())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
