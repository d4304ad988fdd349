package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	unitsDispatched  *prometheus.CounterVec
	unfulfilled      *prometheus.CounterVec
	planningLatency  prometheus.Histogram
	externalFallback *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Histogram, *prometheus.CounterVec) {
	units := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_units_total",
			Help: "Number of responder units dispatched",
		},
		[]string{"category"},
	)
	unf := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_unfulfilled_total",
			Help: "Required categories left without an available unit",
		},
		[]string{"category"},
	)
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_planning_seconds",
			Help:    "Time spent selecting and marking units for an incident",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)
	fb := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_fallback_total",
			Help: "Collaborator calls answered by the local fallback",
		},
		[]string{"component"},
	)
	return units, unf, lat, fb
}

func init() {
	unitsDispatched, unfulfilled, planningLatency, externalFallback = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(unitsDispatched, unfulfilled, planningLatency, externalFallback)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	unitsDispatched, unfulfilled, planningLatency, externalFallback = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
