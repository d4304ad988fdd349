package metrics

import (
	"time"

	"github.com/kilianp07/omnidispatch/core/model"
)

// DispatchRecord represents one unit assigned to an incident.
type DispatchRecord struct {
	IncidentID    string
	UnitID        string
	Category      model.ResponderCategory
	EmergencyType model.EmergencyType
	Priority      model.Priority
	DistanceKm    float64
	ETAMinutes    int
	Time          time.Time
}

// MetricsSink records dispatch results for observability purposes.
type MetricsSink interface {
	RecordDispatch(records []DispatchRecord) error
}

// FallbackEvent is emitted when a collaborator was replaced by its local fallback.
type FallbackEvent struct {
	Component string
	Reason    string
	Time      time.Time
}

// FallbackRecorder records fallback events.
type FallbackRecorder interface {
	RecordFallback(ev FallbackEvent) error
}

// UnfulfilledEvent is emitted when a required category had no available unit.
type UnfulfilledEvent struct {
	IncidentID string
	Category   model.ResponderCategory
	Time       time.Time
}

// UnfulfilledRecorder records unfulfilled categories.
type UnfulfilledRecorder interface {
	RecordUnfulfilled(ev UnfulfilledEvent) error
}

// ObserverGaugeRecorder tracks the number of registered observers.
type ObserverGaugeRecorder interface {
	RecordObservers(n int) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordDispatch([]DispatchRecord) error { return nil }
