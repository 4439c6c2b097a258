package domain

import (
	"math"
	"testing"
)

func TestGeoPointValidate(t *testing.T) {
	tests := []struct {
		p  GeoPoint
		ok bool
	}{
		{GeoPoint{Lat: 53.3498, Lon: -6.2603}, true},
		{GeoPoint{Lat: -90, Lon: 180}, true},
		{GeoPoint{Lat: 90.01, Lon: 0}, false},
		{GeoPoint{Lat: 0, Lon: -180.5}, false},
		{GeoPoint{Lat: math.Inf(1), Lon: 0}, false},
		{GeoPoint{Lat: 0, Lon: math.NaN()}, false},
	}
	for _, tt := range tests {
		if err := tt.p.Validate(); (err == nil) != tt.ok {
			t.Errorf("Validate(%v) = %v, want ok=%v", tt.p, err, tt.ok)
		}
	}
}

func TestGeoPointNear(t *testing.T) {
	p := GeoPoint{Lat: 53.0106, Lon: -6.3298}
	if !p.Near(GeoPoint{Lat: 53.0107, Lon: -6.3297}, 0.0001+1e-9) {
		t.Error("points within tolerance reported apart")
	}
	if p.Near(GeoPoint{Lat: 53.0206, Lon: -6.3298}, 0.0001) {
		t.Error("distant points reported near")
	}
}

func TestBounds(t *testing.T) {
	b := Bounds{MinLat: 52, MinLon: -8, MaxLat: 54, MaxLon: -6}
	if c := b.Center(); c.Lat != 53 || c.Lon != -7 {
		t.Errorf("Center() = %v", c)
	}
	if b.IsPoint() {
		t.Error("IsPoint() = true for a box")
	}
	if !(Bounds{MinLat: 1, MinLon: 2, MaxLat: 1, MaxLon: 2}).IsPoint() {
		t.Error("IsPoint() = false for a degenerate box")
	}
}
