// Package geo holds the distance and travel-time helpers used by the planner.
package geo

import (
	"math"

	"github.com/kilianp07/omnidispatch/core/model"
)

// EarthRadiusKm is the mean radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// MaxETAMinutes bounds every estimate returned by ETAMinutes.
const MaxETAMinutes = 15

const defaultSpeedKmh = 55.0

var speedsKmh = map[model.ResponderCategory]float64{
	model.CategoryFire:    50,
	model.CategoryMedical: 60,
	model.CategoryPolice:  70,
}

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b model.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// SpeedKmh returns the average travel speed for the category.
func SpeedKmh(c model.ResponderCategory) float64 {
	if s, ok := speedsKmh[c]; ok {
		return s
	}
	return defaultSpeedKmh
}

// ETAMinutes converts a distance into whole minutes of travel for the given
// category. The result is always in [1, MaxETAMinutes].
func ETAMinutes(distanceKm float64, c model.ResponderCategory) int {
	minutes := int(math.Ceil(distanceKm / SpeedKmh(c) * 60))
	if minutes < 1 {
		minutes = 1
	}
	if minutes > MaxETAMinutes {
		minutes = MaxETAMinutes
	}
	return minutes
}

// Round2 rounds v to two decimals.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }
