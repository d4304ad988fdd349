package model

// Location is a WGS84 coordinate pair in degrees. Address is informational
// and may be empty.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// DefaultLocation is used when a caller does not share a position.
var DefaultLocation = Location{Lat: 17.385, Lng: 78.4867, Address: "Unknown Location"}
