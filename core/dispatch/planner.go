package dispatch

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/omnidispatch/core/geo"
	"github.com/kilianp07/omnidispatch/core/model"
)

// Fleet is the part of the responder registry the planner needs.
type Fleet interface {
	ListAvailable(c model.ResponderCategory) []model.ResponderUnit
	MarkResponding(id string, dest model.Location, eta int) error
}

// Plan is the outcome of matching required categories to units.
type Plan struct {
	Required    []model.ResponderCategory
	Summaries   []model.DispatchSummary
	Unfulfilled []model.ResponderCategory
}

// MinETA returns the smallest ETA of the plan, or fallback when nothing was
// dispatched.
func (p Plan) MinETA(fallback int) int {
	if len(p.Summaries) == 0 {
		return fallback
	}
	eta := p.Summaries[0].ETAMinutes
	for _, s := range p.Summaries[1:] {
		if s.ETAMinutes < eta {
			eta = s.ETAMinutes
		}
	}
	return eta
}

// UnitNames returns the display names of the dispatched units in order.
func (p Plan) UnitNames() []string {
	names := make([]string, 0, len(p.Summaries))
	for _, s := range p.Summaries {
		names = append(names, s.Name)
	}
	return names
}

// Planner assigns the nearest available unit of every required category.
// Callers serialize Plan with any other fleet mutation.
type Planner struct {
	Fleet Fleet
}

// Plan selects, marks and summarizes one unit per required category, in the
// order given. A category with no available unit is reported as unfulfilled.
func (p Planner) Plan(required []model.ResponderCategory, at model.Location) (Plan, error) {
	plan := Plan{Required: dedupe(required)}
	chosen := make(map[string]bool, len(plan.Required))
	for _, c := range plan.Required {
		var candidates []model.ResponderUnit
		for _, u := range p.Fleet.ListAvailable(c) {
			if !chosen[u.ID] {
				candidates = append(candidates, u)
			}
		}
		if len(candidates) == 0 {
			plan.Unfulfilled = append(plan.Unfulfilled, c)
			continue
		}

		dist := make([]float64, len(candidates))
		for i, u := range candidates {
			dist[i] = geo.DistanceKm(at, u.Position())
		}
		// MinIdx returns the first index on ties.
		best := floats.MinIdx(dist)
		unit, d := candidates[best], dist[best]
		eta := geo.ETAMinutes(d, unit.Category)

		dest := model.Location{Lat: at.Lat, Lng: at.Lng}
		if err := p.Fleet.MarkResponding(unit.ID, dest, eta); err != nil {
			return plan, fmt.Errorf("dispatch %s: %w", c, err)
		}
		chosen[unit.ID] = true
		plan.Summaries = append(plan.Summaries, model.DispatchSummary{
			UnitID:     unit.ID,
			Name:       unit.Name,
			Category:   unit.Category,
			Station:    unit.Station,
			DistanceKm: geo.Round2(d),
			ETAMinutes: eta,
			Lat:        unit.Lat,
			Lng:        unit.Lng,
		})
	}
	return plan, nil
}

func dedupe(cs []model.ResponderCategory) []model.ResponderCategory {
	seen := make(map[model.ResponderCategory]bool, len(cs))
	out := make([]model.ResponderCategory, 0, len(cs))
	for _, c := range cs {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
