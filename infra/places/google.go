// Package places finds nearby public services through the Google Places
// nearby search.
package places

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/kilianp07/omnidispatch/core/geo"
	"github.com/kilianp07/omnidispatch/core/model"
	coreplaces "github.com/kilianp07/omnidispatch/core/places"
)

const (
	searchRadiusMeters = 10000
	typesPerSearch     = 2
	resultsPerType     = 3
)

var placeTypes = map[model.EmergencyType][]maps.PlaceType{
	model.EmergencyFire:     {maps.PlaceTypeFireStation},
	model.EmergencyMedical:  {maps.PlaceTypeHospital, maps.PlaceTypeDoctor, maps.PlaceTypePharmacy},
	model.EmergencyCrime:    {maps.PlaceTypePolice},
	model.EmergencyAccident: {maps.PlaceTypeHospital, maps.PlaceTypePolice},
	model.EmergencyDisaster: {maps.PlaceTypeFireStation, maps.PlaceTypeHospital, maps.PlaceTypePolice},
}

var defaultTypes = []maps.PlaceType{maps.PlaceTypeHospital, maps.PlaceTypePolice}

// Config configures the Google finder.
type Config struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"api_key"`
	// APIKeyEnv names the environment variable read when APIKey is empty.
	APIKeyEnv string `json:"api_key_env"`
	// BaseURL overrides the Maps API host, mostly for tests.
	BaseURL string `json:"base_url"`
}

// ErrNoAPIKey is returned when the finder is built without credentials.
var ErrNoAPIKey = errors.New("places: api key is required")

// Google implements core/places.Finder with the Maps nearby search.
type Google struct {
	client *maps.Client
}

// NewGoogle creates a finder for cfg.
func NewGoogle(cfg Config) (*Google, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")))
	}
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("places: create client: %w", err)
	}
	return &Google{client: c}, nil
}

// Nearby searches up to two place types for kind and returns the closest
// results.
func (g *Google) Nearby(ctx context.Context, loc model.Location, kind model.EmergencyType) ([]model.Place, error) {
	types, ok := placeTypes[kind]
	if !ok {
		types = defaultTypes
	}
	if len(types) > typesPerSearch {
		types = types[:typesPerSearch]
	}
	var out []model.Place
	for _, t := range types {
		resp, err := g.client.NearbySearch(ctx, &maps.NearbySearchRequest{
			Location: &maps.LatLng{Lat: loc.Lat, Lng: loc.Lng},
			Radius:   searchRadiusMeters,
			Type:     t,
		})
		if err != nil {
			return nil, fmt.Errorf("places: nearby %s: %w: %w", t, model.ErrExternalUnavailable, err)
		}
		results := resp.Results
		if len(results) > resultsPerType {
			results = results[:resultsPerType]
		}
		for _, r := range results {
			out = append(out, toPlace(loc, t, r))
		}
	}
	return coreplaces.SortByDistance(out), nil
}

func toPlace(origin model.Location, t maps.PlaceType, r maps.PlacesSearchResult) model.Place {
	at := model.Location{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng}
	p := model.Place{
		Name:       r.Name,
		Type:       typeLabel(t),
		Lat:        at.Lat,
		Lng:        at.Lng,
		DistanceKm: geo.Round2(geo.DistanceKm(origin, at)),
		Address:    r.Vicinity,
	}
	if r.Rating > 0 {
		rating := float64(r.Rating)
		p.Rating = &rating
	}
	open := true
	if r.OpeningHours != nil && r.OpeningHours.OpenNow != nil {
		open = *r.OpeningHours.OpenNow
	}
	p.OpenNow = &open
	return p
}

// typeLabel turns "fire_station" into "Fire Station".
func typeLabel(t maps.PlaceType) string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
