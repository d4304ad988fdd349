package model

import (
	"errors"
	"fmt"
)

// Classification is the structured reading of a caller transcript.
type Classification struct {
	EmergencyType     EmergencyType `json:"emergency_type"`
	Priority          Priority      `json:"priority"`
	Description       string        `json:"description"`
	RequiresFire      bool          `json:"requires_fire"`
	RequiresMedical   bool          `json:"requires_medical"`
	RequiresPolice    bool          `json:"requires_police"`
	NumberOfVictims   int           `json:"number_of_victims"`
	ImmediateDanger   bool          `json:"immediate_danger"`
	SpecialEquipment  []string      `json:"special_equipment"`
	CallerReassurance string        `json:"caller_reassurance"`
	// Source names the provider that produced the classification, or
	// "fallback" for the local keyword taxonomy.
	Source string `json:"source,omitempty"`
}

// RequiredCategories returns the flagged responder categories in planning order.
func (c Classification) RequiredCategories() []ResponderCategory {
	var out []ResponderCategory
	if c.RequiresFire {
		out = append(out, CategoryFire)
	}
	if c.RequiresMedical {
		out = append(out, CategoryMedical)
	}
	if c.RequiresPolice {
		out = append(out, CategoryPolice)
	}
	return out
}

// Validate checks the enumerated fields of a classification.
func (c Classification) Validate() error {
	var errs []error
	if !c.EmergencyType.Valid() {
		errs = append(errs, fmt.Errorf("emergency_type %q", c.EmergencyType))
	}
	if !c.Priority.Valid() {
		errs = append(errs, fmt.Errorf("priority %q", c.Priority))
	}
	if c.Description == "" {
		errs = append(errs, errors.New("description is empty"))
	}
	if c.NumberOfVictims < 0 {
		errs = append(errs, fmt.Errorf("number_of_victims %d", c.NumberOfVictims))
	}
	return errors.Join(errs...)
}
