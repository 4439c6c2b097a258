package domain

import (
	"fmt"
	"math"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether both components are finite and inside the WGS 84 ranges.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("coordinate is not finite: %v,%v", p.Lat, p.Lon)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude out of range: %v", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude out of range: %v", p.Lon)
	}
	return nil
}

// Near reports whether q lies within tolerance degrees of p on both axes.
func (p GeoPoint) Near(q GeoPoint, tolerance float64) bool {
	return math.Abs(p.Lat-q.Lat) <= tolerance && math.Abs(p.Lon-q.Lon) <= tolerance
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Center returns the midpoint of the box.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}

// IsPoint reports whether the box has zero area.
func (b Bounds) IsPoint() bool {
	return b.MinLat == b.MaxLat && b.MinLon == b.MaxLon
}
