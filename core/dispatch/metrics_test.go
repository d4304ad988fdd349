package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsRegistration(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)
	// touch metrics so they are exported
	unitsDispatched.WithLabelValues("fire").Inc()
	unfulfilled.WithLabelValues("police").Inc()
	planningLatency.Observe(0.001)
	externalFallback.WithLabelValues("classifier").Inc()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[*mf.Name] = true
	}
	expected := []string{
		"dispatch_units_total",
		"dispatch_unfulfilled_total",
		"dispatch_planning_seconds",
		"external_fallback_total",
	}
	for _, n := range expected {
		if !names[n] {
			t.Errorf("metric %s not registered", n)
		}
	}
}
