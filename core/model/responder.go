package model

import "fmt"

// ResponderCategory identifies the kind of unit that can be dispatched.
type ResponderCategory string

const (
	CategoryFire    ResponderCategory = "fire"
	CategoryMedical ResponderCategory = "medical"
	CategoryPolice  ResponderCategory = "police"
)

// Categories lists the responder categories in planning order.
var Categories = []ResponderCategory{CategoryFire, CategoryMedical, CategoryPolice}

// Valid reports whether c is a known category.
func (c ResponderCategory) Valid() bool {
	switch c {
	case CategoryFire, CategoryMedical, CategoryPolice:
		return true
	default:
		return false
	}
}

// ParseCategory converts s to a ResponderCategory.
func ParseCategory(s string) (ResponderCategory, error) {
	c := ResponderCategory(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown responder category %q", s)
	}
	return c, nil
}

// UnitStatus is the availability of a responder unit.
type UnitStatus string

const (
	StatusAvailable  UnitStatus = "available"
	StatusResponding UnitStatus = "responding"
)

// ResponderUnit is a dispatchable resource. A unit is responding iff both
// Destination and ETAMinutes are set.
type ResponderUnit struct {
	ID          string            `json:"id"`
	Category    ResponderCategory `json:"type"`
	Name        string            `json:"unit"`
	Station     string            `json:"station"`
	Status      UnitStatus        `json:"status"`
	Lat         float64           `json:"lat"`
	Lng         float64           `json:"lng"`
	Destination *Location         `json:"destination,omitempty"`
	ETAMinutes  int               `json:"eta_minutes,omitempty"`
}

// Position returns the current coordinates of the unit.
func (u ResponderUnit) Position() Location {
	return Location{Lat: u.Lat, Lng: u.Lng}
}

// Available returns true when the unit can be dispatched.
func (u ResponderUnit) Available() bool { return u.Status == StatusAvailable }

// Consistent checks the status/destination/ETA invariant.
func (u ResponderUnit) Consistent() bool {
	assigned := u.Destination != nil && u.ETAMinutes > 0
	return (u.Status == StatusResponding) == assigned
}
