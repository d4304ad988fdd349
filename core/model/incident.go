package model

import "time"

// EmergencyType is the classification of a reported emergency.
type EmergencyType string

const (
	EmergencyFire     EmergencyType = "fire"
	EmergencyMedical  EmergencyType = "medical"
	EmergencyCrime    EmergencyType = "crime"
	EmergencyAccident EmergencyType = "accident"
	EmergencyDisaster EmergencyType = "disaster"
	EmergencyGeneral  EmergencyType = "general"
)

// Valid reports whether t is a known emergency type.
func (t EmergencyType) Valid() bool {
	switch t {
	case EmergencyFire, EmergencyMedical, EmergencyCrime, EmergencyAccident, EmergencyDisaster, EmergencyGeneral:
		return true
	default:
		return false
	}
}

// Priority ranks the urgency of an incident.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// IncidentStatus is the lifecycle state of an incident.
type IncidentStatus string

const (
	IncidentActive  IncidentStatus = "active"
	IncidentCleared IncidentStatus = "cleared"
)

// DispatchSummary describes one unit assigned to an incident.
type DispatchSummary struct {
	UnitID     string            `json:"id"`
	Name       string            `json:"unit"`
	Category   ResponderCategory `json:"type"`
	Station    string            `json:"station"`
	DistanceKm float64           `json:"distance_km"`
	ETAMinutes int               `json:"eta_minutes"`
	Lat        float64           `json:"lat"`
	Lng        float64           `json:"lng"`
}

// Incident is a recorded emergency report.
type Incident struct {
	ID              string            `json:"id"`
	Type            EmergencyType     `json:"type"`
	Priority        Priority          `json:"priority"`
	Description     string            `json:"description"`
	Location        Location          `json:"location"`
	DispatchedUnits []DispatchSummary `json:"dispatched_units"`
	NearbyServices  []Place           `json:"nearby_services"`
	Status          IncidentStatus    `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	ClearedAt       *time.Time        `json:"cleared_at,omitempty"`
	CallerPhone     string            `json:"caller_phone,omitempty"`
	Analysis        Classification    `json:"analysis"`
}

// Place is a nearby public service returned by a place finder.
type Place struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	DistanceKm float64  `json:"distance"`
	Address    string   `json:"address,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`
	OpenNow    *bool    `json:"open_now,omitempty"`
}
