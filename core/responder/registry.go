// Package responder owns the fleet of responder units and their status.
package responder

import (
	"fmt"
	"sync"

	"github.com/kilianp07/omnidispatch/core/model"
)

// Template describes where a unit is placed relative to the fleet origin.
type Template struct {
	ID       string
	Category model.ResponderCategory
	Name     string
	Station  string
	DLat     float64
	DLng     float64
}

// DefaultFleet is the fixed set of units placed around a caller: two per
// category, between roughly 2 and 3 km away.
var DefaultFleet = []Template{
	{ID: "ENG-7", Category: model.CategoryFire, Name: "Engine 7", Station: "Fire Station Alpha", DLat: 0.015, DLng: 0.02},
	{ID: "LAD-3", Category: model.CategoryFire, Name: "Ladder 3", Station: "Fire Station Bravo", DLat: -0.01, DLng: 0.025},
	{ID: "MED-9", Category: model.CategoryMedical, Name: "Medic 9", Station: "City Hospital", DLat: 0.02, DLng: -0.015},
	{ID: "MED-5", Category: model.CategoryMedical, Name: "Medic 5", Station: "Regional Medical Center", DLat: -0.02, DLng: -0.01},
	{ID: "POL-42", Category: model.CategoryPolice, Name: "Unit 42", Station: "Police Station Central", DLat: 0.008, DLng: 0.03},
	{ID: "POL-18", Category: model.CategoryPolice, Name: "Unit 18", Station: "Police Station West", DLat: -0.025, DLng: 0.005},
}

// Registry is a concurrency-safe in-memory fleet.
type Registry struct {
	mu       sync.RWMutex
	units    []model.ResponderUnit
	template []Template
}

// NewRegistry returns an empty registry that places units using tpl. A nil
// template selects DefaultFleet.
func NewRegistry(tpl []Template) *Registry {
	if tpl == nil {
		tpl = DefaultFleet
	}
	return &Registry{template: tpl}
}

// InitializeFleet replaces the current fleet with the template placed around
// origin. Every unit starts available.
func (r *Registry) InitializeFleet(origin model.Location) []model.ResponderUnit {
	units := make([]model.ResponderUnit, 0, len(r.template))
	for _, t := range r.template {
		units = append(units, model.ResponderUnit{
			ID:       t.ID,
			Category: t.Category,
			Name:     t.Name,
			Station:  t.Station,
			Status:   model.StatusAvailable,
			Lat:      origin.Lat + t.DLat,
			Lng:      origin.Lng + t.DLng,
		})
	}
	r.mu.Lock()
	r.units = units
	r.mu.Unlock()
	return clone(units)
}

// Empty reports whether the fleet has not been initialized.
func (r *Registry) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.units) == 0
}

// List returns a copy of every unit in placement order.
func (r *Registry) List() []model.ResponderUnit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.units)
}

// ListAvailable returns the available units of category c in placement order.
func (r *Registry) ListAvailable(c model.ResponderCategory) []model.ResponderUnit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.ResponderUnit
	for _, u := range r.units {
		if u.Category == c && u.Status == model.StatusAvailable {
			out = append(out, u)
		}
	}
	return out
}

// MarkResponding assigns the unit to dest with the given ETA.
func (r *Registry) MarkResponding(id string, dest model.Location, eta int) error {
	if eta < 1 {
		return fmt.Errorf("mark %s responding: eta must be positive, got %d", id, eta)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.units {
		if r.units[i].ID != id {
			continue
		}
		d := dest
		r.units[i].Status = model.StatusResponding
		r.units[i].Destination = &d
		r.units[i].ETAMinutes = eta
		return nil
	}
	return fmt.Errorf("mark %s responding: %w", id, model.ErrUnknownResponder)
}

// ResetAll makes every unit available again.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	for i := range r.units {
		r.units[i].Status = model.StatusAvailable
		r.units[i].Destination = nil
		r.units[i].ETAMinutes = 0
	}
	r.mu.Unlock()
}

func clone(units []model.ResponderUnit) []model.ResponderUnit {
	out := make([]model.ResponderUnit, len(units))
	for i, u := range units {
		if u.Destination != nil {
			d := *u.Destination
			u.Destination = &d
		}
		out[i] = u
	}
	return out
}
