package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// AcquireCounter tracks lock acquisitions on cells, labelled by mode
	// ("read" or "write").
	AcquireCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tspawn_cell_acquire_total",
		Help: "Total number of cell lock acquisitions",
	}, []string{"mode"})
	// AcquireWait observes how long callers waited for a cell lock.
	AcquireWait = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tspawn_cell_acquire_wait_seconds",
		Help:    "Time spent waiting for a cell lock",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
	// CellGauge reports the number of shared values with at least one live handle.
	CellGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tspawn_cells",
		Help: "Current number of live shared cells",
	})
	// TaskCounter tracks the number of tasks handed to a scheduler by the spawner.
	TaskCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tspawn_tasks_total",
		Help: "Total number of spawned tasks",
	})
	// TaskFailureCounter tracks tasks that finished with an error or a panic.
	TaskFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tspawn_task_failures_total",
		Help: "Total number of failed tasks",
	}, []string{"reason"})
	// ActiveTaskGauge reports the number of tasks currently running.
	ActiveTaskGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tspawn_tasks_active",
		Help: "Current number of running tasks",
	})
	// BindingCounter tracks bindings established for tasks, labelled by mode.
	BindingCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tspawn_bindings_total",
		Help: "Total number of task bindings",
	}, []string{"mode"})
)

// NewRegistry creates a new Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// RegisterCoreMetrics registers tspawn metrics on the provided registry.
func RegisterCoreMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		AcquireCounter,
		AcquireWait,
		CellGauge,
		TaskCounter,
		TaskFailureCounter,
		ActiveTaskGauge,
		BindingCounter,
	)
}
