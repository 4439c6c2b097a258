package geospatial

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	// Clonmacnoise to Glendalough, roughly 112 km.
	d := Haversine(53.3262, -7.9862, 53.0107, -6.3276)
	if d < 110000 || d > 116000 {
		t.Errorf("unexpected distance %.0f m", d)
	}
	if Haversine(53, -7, 53, -7) != 0 {
		t.Error("distance to self should be zero")
	}
}

func TestBoundingBox(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(53.0, -7.0, 1000)
	if minLat >= 53 || maxLat <= 53 || minLon >= -7 || maxLon <= -7 {
		t.Fatalf("box does not contain its centre: %v %v %v %v", minLat, minLon, maxLat, maxLon)
	}
	if math.Abs((maxLat-minLat)-2*1000/111320.0) > 1e-9 {
		t.Errorf("unexpected latitude span %v", maxLat-minLat)
	}
}

func TestExtent(t *testing.T) {
	if _, _, _, _, ok := Extent(nil); ok {
		t.Fatal("expected no extent for empty input")
	}

	minLat, minLon, maxLat, maxLon, ok := Extent([][2]float64{
		{53.3, -7.9},
		{52.1, -6.3},
		{54.6, -8.4},
	})
	if !ok {
		t.Fatal("expected extent")
	}
	if minLat != 52.1 || maxLat != 54.6 || minLon != -8.4 || maxLon != -6.3 {
		t.Errorf("got %v,%v %v,%v", minLat, minLon, maxLat, maxLon)
	}
}
