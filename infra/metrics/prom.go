package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/omnidispatch/core/metrics"
)

// PromSink records dispatched units and observer counts in Prometheus.
type PromSink struct {
	eta       *prometheus.HistogramVec
	distance  *prometheus.HistogramVec
	priority  *prometheus.CounterVec
	observers prometheus.Gauge
}

// NewPromSink registers the sink collectors on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the collectors on reg. Collectors that
// are already registered are reused. A nil registerer defaults to the
// global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	eta := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_eta_minutes",
		Help:    "ETA of dispatched units",
		Buckets: []float64{1, 2, 3, 5, 8, 10, 12, 15},
	}, []string{"category"})
	distance := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_distance_km",
		Help:    "Distance between a dispatched unit and the incident",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 50},
	}, []string{"category"})
	priority := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_incident_units_total",
		Help: "Dispatched units by incident type and priority",
	}, []string{"emergency_type", "priority"})
	observers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "observers_connected",
		Help: "Number of observers registered on the update bus",
	})

	var err error
	if eta, err = register(reg, eta); err != nil {
		return nil, err
	}
	if distance, err = register(reg, distance); err != nil {
		return nil, err
	}
	if priority, err = register(reg, priority); err != nil {
		return nil, err
	}
	if observers, err = register(reg, observers); err != nil {
		return nil, err
	}
	return &PromSink{eta: eta, distance: distance, priority: priority, observers: observers}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordDispatch observes ETA and distance per dispatched unit.
func (s *PromSink) RecordDispatch(recs []coremetrics.DispatchRecord) error {
	for _, r := range recs {
		cat := string(r.Category)
		s.eta.WithLabelValues(cat).Observe(float64(r.ETAMinutes))
		s.distance.WithLabelValues(cat).Observe(r.DistanceKm)
		s.priority.WithLabelValues(string(r.EmergencyType), string(r.Priority)).Inc()
	}
	return nil
}

// RecordObservers sets the connected observer gauge.
func (s *PromSink) RecordObservers(n int) error {
	s.observers.Set(float64(n))
	return nil
}
