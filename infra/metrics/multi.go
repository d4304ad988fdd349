package metrics

import coremetrics "github.com/kilianp07/omnidispatch/core/metrics"

// MultiSink fans dispatch records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDispatch forwards the records to all sinks, returning the first error encountered.
func (m *MultiSink) RecordDispatch(recs []coremetrics.DispatchRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(recs); err != nil {
			return err
		}
	}
	return nil
}

// RecordFallback forwards fallback events.
func (m *MultiSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.FallbackRecorder); ok {
			if err := rec.RecordFallback(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordUnfulfilled forwards unfulfilled category events.
func (m *MultiSink) RecordUnfulfilled(ev coremetrics.UnfulfilledEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.UnfulfilledRecorder); ok {
			if err := rec.RecordUnfulfilled(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordObservers forwards the observer count when supported by the sink.
func (m *MultiSink) RecordObservers(n int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.ObserverGaugeRecorder); ok {
			if err := rec.RecordObservers(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases the sinks that hold a connection.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
