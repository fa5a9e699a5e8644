package models

import (
	"fmt"
	"math"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsValidCoordinate reports whether lat/lng form a well-formed coordinate:
// both finite, latitude in [-90, 90] and longitude in [-180, 180].
// Every component that ingests a coordinate from an untrusted source
// (search results, map taps, GPS fixes, handoff params) goes through this.
func IsValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return false
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	if lat < -90 || lat > 90 {
		return false
	}
	if lng < -180 || lng > 180 {
		return false
	}
	return true
}

// Valid reports whether the coordinate passes IsValidCoordinate.
func (c Coordinate) Valid() bool {
	return IsValidCoordinate(c.Latitude, c.Longitude)
}

// FormatCoordinate renders a coordinate pair for display with 6 decimal
// places. Used as the fallback address when reverse geocoding fails.
func FormatCoordinate(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}
