package filter

import (
	"fmt"
	"slices"

	"github.com/samirrijal/sacredsites/internal/core/domain"
)

// Profile describes which facets a page offers and the values it starts with.
type Profile struct {
	Name     string
	Facets   []domain.FacetName
	Defaults domain.FilterState
}

// Enabled reports whether the page offers facet f.
func (p Profile) Enabled(f domain.FacetName) bool {
	return slices.Contains(p.Facets, f)
}

var (
	// Homepage is the landing page directory with the category switcher.
	Homepage = Profile{
		Name:     "homepage",
		Facets:   []domain.FacetName{domain.FacetCategory, domain.FacetCounty, domain.FacetProvince, domain.FacetSaint},
		Defaults: domain.FilterState{domain.FacetCategory: domain.AllValue},
	}

	// Saints is the saints directory. Saint text input is debounced by the caller.
	Saints = Profile{
		Name:   "saints",
		Facets: []domain.FacetName{domain.FacetSaint, domain.FacetCounty, domain.FacetProvince, domain.FacetCentury},
	}

	// Archive is the per-type archive listing.
	Archive = Profile{
		Name:     "archive",
		Facets:   []domain.FacetName{domain.FacetSiteType, domain.FacetCounty, domain.FacetProvince, domain.FacetCentury},
		Defaults: domain.FilterState{domain.FacetSiteType: domain.AllValue},
	}
)

// Profiles indexes the built-in profiles by name.
var Profiles = map[string]Profile{
	Homepage.Name: Homepage,
	Saints.Name:   Saints,
	Archive.Name:  Archive,
}

// LookupProfile returns the named profile.
func LookupProfile(name string) (Profile, error) {
	p, ok := Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown page profile %q", name)
	}
	return p, nil
}
