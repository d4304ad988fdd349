package events

import "github.com/kilianp07/omnidispatch/core/model"

const (
	KindInitialState     = "initial_state"
	KindNewIncident      = "new_incident"
	KindResponderUpdate  = "responder_update"
	KindIncidentsCleared = "incidents_cleared"
	KindPong             = "pong"
)

// Event is a JSON-serializable state change. Kind matches the "type" field
// of the serialized payload.
type Event interface {
	Kind() string
}

// InitialState carries the full current state for a late-joining observer.
type InitialState struct {
	Type       string                `json:"type"`
	Incidents  []model.Incident      `json:"incidents"`
	Responders []model.ResponderUnit `json:"responders"`
}

func (InitialState) Kind() string { return KindInitialState }

// NewIncident announces a created incident.
type NewIncident struct {
	Type     string         `json:"type"`
	Incident model.Incident `json:"incident"`
}

func (NewIncident) Kind() string { return KindNewIncident }

// ResponderUpdate carries the whole fleet after a change.
type ResponderUpdate struct {
	Type       string                `json:"type"`
	Responders []model.ResponderUnit `json:"responders"`
}

func (ResponderUpdate) Kind() string { return KindResponderUpdate }

// IncidentsCleared announces that every active incident was cleared.
type IncidentsCleared struct {
	Type    string   `json:"type"`
	Cleared []string `json:"cleared,omitempty"`
}

func (IncidentsCleared) Kind() string { return KindIncidentsCleared }

// Pong answers a client ping.
type Pong struct {
	Type string `json:"type"`
}

func (Pong) Kind() string { return KindPong }

func NewInitialState(incidents []model.Incident, responders []model.ResponderUnit) InitialState {
	if incidents == nil {
		incidents = []model.Incident{}
	}
	if responders == nil {
		responders = []model.ResponderUnit{}
	}
	return InitialState{Type: KindInitialState, Incidents: incidents, Responders: responders}
}

func NewNewIncident(inc model.Incident) NewIncident {
	return NewIncident{Type: KindNewIncident, Incident: inc}
}

func NewResponderUpdate(units []model.ResponderUnit) ResponderUpdate {
	if units == nil {
		units = []model.ResponderUnit{}
	}
	return ResponderUpdate{Type: KindResponderUpdate, Responders: units}
}

func NewIncidentsCleared(ids []string) IncidentsCleared {
	return IncidentsCleared{Type: KindIncidentsCleared, Cleared: ids}
}

func NewPong() Pong { return Pong{Type: KindPong} }
