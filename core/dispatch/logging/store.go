package logging

import (
	"context"
	"time"

	"github.com/kilianp07/omnidispatch/core/model"
)

// LogRecord captures one first-contact dispatch decision.
type LogRecord struct {
	Timestamp        time.Time                 `json:"timestamp"`
	SessionID        string                    `json:"session_id"`
	IncidentID       string                    `json:"incident_id"`
	EmergencyType    model.EmergencyType       `json:"emergency_type"`
	Priority         model.Priority            `json:"priority"`
	Location         model.Location            `json:"location"`
	Required         []model.ResponderCategory `json:"required"`
	Unfulfilled      []model.ResponderCategory `json:"unfulfilled"`
	Dispatched       []model.DispatchSummary   `json:"dispatched"`
	ClassifierSource string                    `json:"classifier_source"`
}

// LogQuery defines filters for retrieving records. Zero values match all.
type LogQuery struct {
	Start         time.Time
	End           time.Time
	IncidentID    string
	EmergencyType model.EmergencyType
	UnitID        string
	// Limit keeps the most recent records when positive.
	Limit int
}

// Match reports whether r satisfies every filter of q.
func (q LogQuery) Match(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.IncidentID != "" && r.IncidentID != q.IncidentID {
		return false
	}
	if q.EmergencyType != "" && r.EmergencyType != q.EmergencyType {
		return false
	}
	if q.UnitID != "" {
		for _, d := range r.Dispatched {
			if d.UnitID == q.UnitID {
				return true
			}
		}
		return false
	}
	return true
}

func (q LogQuery) limit(res []LogRecord) []LogRecord {
	if q.Limit > 0 && len(res) > q.Limit {
		return res[len(res)-q.Limit:]
	}
	return res
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, LogRecord) error               { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]LogRecord, error) { return nil, nil }
func (NopStore) Close() error                                          { return nil }
