package domain

import (
	"slices"
	"testing"
)

func TestProvincesCoverIsland(t *testing.T) {
	seen := map[string]string{}
	for _, p := range Provinces {
		for _, c := range p.Counties {
			if prev, dup := seen[c]; dup {
				t.Errorf("county %s in both %s and %s", c, prev, p.Slug)
			}
			seen[c] = p.Slug
		}
	}
	if len(seen) != 32 {
		t.Errorf("got %d counties, want 32", len(seen))
	}
}

func TestProvinceLookups(t *testing.T) {
	if got := ProvinceCounties("munster"); !slices.Contains(got, "kerry") {
		t.Errorf("ProvinceCounties(munster) = %v", got)
	}
	if got := ProvinceCounties("atlantis"); got != nil {
		t.Errorf("unknown province returned %v", got)
	}

	if p, ok := ProvinceOf("derry"); !ok || p != "ulster" {
		t.Errorf("ProvinceOf(derry) = %q, %v", p, ok)
	}
	if _, ok := ProvinceOf("Derry"); ok {
		t.Error("ProvinceOf expects normalised slugs")
	}

	p, ok := LookupProvince("connacht")
	if !ok || p.Name != "Connacht" || len(p.Counties) != 5 {
		t.Errorf("LookupProvince(connacht) = %+v, %v", p, ok)
	}
	if _, ok := LookupProvince(""); ok {
		t.Error("empty slug resolved")
	}
}
