// Package places looks up public services near an incident.
package places

import (
	"context"
	"sort"

	"github.com/kilianp07/omnidispatch/core/geo"
	"github.com/kilianp07/omnidispatch/core/logger"
	"github.com/kilianp07/omnidispatch/core/model"
)

// MaxResults bounds the list attached to an incident.
const MaxResults = 6

// Finder returns services near loc relevant to an emergency type.
type Finder interface {
	Nearby(ctx context.Context, loc model.Location, kind model.EmergencyType) ([]model.Place, error)
}

type offset struct {
	name, kind string
	dLat, dLng float64
}

var placeholders = []offset{
	{"City Fire Station", "Fire Station", 0.01, 0.015},
	{"General Hospital", "Hospital", -0.008, 0.01},
	{"Central Police Station", "Police", 0.005, -0.012},
	{"Metro Medical Center", "Hospital", -0.015, -0.008},
	{"Emergency Care Clinic", "Hospital", 0.02, 0.005},
}

// Static returns a fixed set of placeholder services around the location.
type Static struct{}

// Nearby implements Finder.
func (Static) Nearby(_ context.Context, loc model.Location, _ model.EmergencyType) ([]model.Place, error) {
	out := make([]model.Place, 0, len(placeholders))
	for _, p := range placeholders {
		lat, lng := loc.Lat+p.dLat, loc.Lng+p.dLng
		out = append(out, model.Place{
			Name:       p.name,
			Type:       p.kind,
			Lat:        lat,
			Lng:        lng,
			DistanceKm: geo.Round2(geo.DistanceKm(loc, model.Location{Lat: lat, Lng: lng})),
		})
	}
	return SortByDistance(out), nil
}

// SortByDistance orders places nearest first and keeps at most MaxResults.
func SortByDistance(ps []model.Place) []model.Place {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].DistanceKm < ps[j].DistanceKm })
	if len(ps) > MaxResults {
		ps = ps[:MaxResults]
	}
	return ps
}

// Fallback queries Primary and answers with the static list when it fails
// or has nothing to offer.
type Fallback struct {
	Primary Finder
	Log     logger.Logger
}

// Nearby implements Finder and never fails.
func (f Fallback) Nearby(ctx context.Context, loc model.Location, kind model.EmergencyType) ([]model.Place, error) {
	if f.Primary != nil {
		ps, err := f.Primary.Nearby(ctx, loc, kind)
		if err == nil && len(ps) > 0 {
			return ps, nil
		}
		if err != nil {
			logger.OrNop(f.Log).Warnf("place lookup failed, using placeholders: %v", err)
		}
	}
	return Static{}.Nearby(ctx, loc, kind)
}
