package domain

import (
	"errors"
	"math"
	"testing"
)

func TestSiteValidate(t *testing.T) {
	tests := []struct {
		name    string
		site    Site
		wantErr bool
	}{
		{"valid", Site{ID: "glendalough", Title: "Glendalough", Category: CategoryMonastic}, false},
		{"valid with location", Site{ID: "a", Title: "A", Category: CategoryHolyWell, Location: &GeoPoint{Lat: 53.0, Lon: -6.3}}, false},
		{"missing id", Site{Title: "A", Category: CategoryHolyWell}, true},
		{"missing title", Site{ID: "a", Category: CategoryHolyWell}, true},
		{"unknown category", Site{ID: "a", Title: "A", Category: "castle"}, true},
		{"bad location", Site{ID: "a", Title: "A", Category: CategoryHolyWell, Location: &GeoPoint{Lat: 91}}, true},
		{"nan location", Site{ID: "a", Title: "A", Category: CategoryHolyWell, Location: &GeoPoint{Lat: math.NaN()}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.site.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedSite) {
				t.Errorf("error %v does not wrap ErrMalformedSite", err)
			}
		})
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := CategoryRoundTower.Label(); got != "Round Tower" {
		t.Errorf("Label() = %q", got)
	}
	if got := Category("castle").Label(); got != "castle" {
		t.Errorf("unknown category label = %q, want raw value", got)
	}
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("%s listed but not valid", c)
		}
	}
}

func TestPrimaryCounty(t *testing.T) {
	s := Site{Counties: []string{"Wicklow", "Dublin"}}
	if got := s.PrimaryCounty(); got != "Wicklow" {
		t.Errorf("PrimaryCounty() = %q", got)
	}
	if got := (&Site{}).PrimaryCounty(); got != "" {
		t.Errorf("empty PrimaryCounty() = %q", got)
	}
}

func TestParseFacetName(t *testing.T) {
	tests := []struct {
		in   string
		want FacetName
		ok   bool
	}{
		{"county", FacetCounty, true},
		{"site-type", FacetSiteType, true},
		{"site_type", FacetSiteType, true},
		{"colour", "colour", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFacetName(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseFacetName(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFilterState(t *testing.T) {
	s := FilterState{FacetCounty: "Kildare", FacetSaint: ""}
	if !s.Active(FacetCounty) || s.Active(FacetSaint) || s.Active(FacetCentury) {
		t.Errorf("Active() wrong for %v", s)
	}
	if s.Empty() {
		t.Error("Empty() = true with an active facet")
	}
	if !(FilterState{FacetSaint: ""}).Empty() {
		t.Error("blank values should count as empty")
	}

	c := s.Clone()
	c[FacetCounty] = "Meath"
	if s.Get(FacetCounty) != "Kildare" {
		t.Error("Clone shares storage with the original")
	}
}

func TestFetchError(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&FetchError{Op: "sites page 2", Err: cause})
	if !IsFetchError(err) {
		t.Error("IsFetchError() = false")
	}
	if !errors.Is(err, cause) {
		t.Error("FetchError does not unwrap to its cause")
	}
	if IsFetchError(cause) {
		t.Error("plain error reported as fetch error")
	}
	if got := err.Error(); got != "fetch sites page 2: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}
