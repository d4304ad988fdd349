package model

// Speaker identifies the author of a conversation turn.
type Speaker string

const (
	SpeakerCaller    Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one message exchanged on a call.
type Turn struct {
	Speaker Speaker `json:"role"`
	Text    string  `json:"content"`
}

// EmergencyContext is the snapshot carried forward to follow-up messages.
type EmergencyContext struct {
	EmergencyType   EmergencyType `json:"emergency_type"`
	Priority        Priority      `json:"priority"`
	Description     string        `json:"description"`
	ImmediateDanger bool          `json:"immediate_danger"`
	UnitsDispatched []string      `json:"units_dispatched"`
	ETAMinutes      int           `json:"eta_minutes"`
	IncidentID      string        `json:"incident_id"`
}

// Empty reports whether no dispatch context has been recorded yet.
func (c EmergencyContext) Empty() bool { return c.IncidentID == "" && c.EmergencyType == "" }
