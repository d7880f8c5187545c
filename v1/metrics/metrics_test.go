package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterCoreMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterCoreMetrics(reg)
	AcquireCounter.WithLabelValues("read").Inc()
	AcquireWait.WithLabelValues("write").Observe(0.001)
	CellGauge.Set(3)
	TaskCounter.Inc()
	TaskFailureCounter.WithLabelValues("error").Inc()
	ActiveTaskGauge.Set(1)
	BindingCounter.WithLabelValues("mut").Inc()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) < 7 {
		t.Fatalf("expected 7 metric families, got %d", len(mfs))
	}
	if v := testutil.ToFloat64(CellGauge); v != 3 {
		t.Fatalf("expected cell gauge 3, got %v", v)
	}
}

func TestRegisterCoreMetricsDuplicatePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterCoreMetrics(reg)
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	RegisterCoreMetrics(reg)
}
