package domain

import "maps"

// FacetName identifies one filterable dimension of the directory.
type FacetName string

const (
	FacetCategory FacetName = "category"
	FacetCounty   FacetName = "county"
	FacetSaint    FacetName = "saint"
	FacetProvince FacetName = "province"
	FacetCentury  FacetName = "century"
	FacetSiteType FacetName = "site-type"
)

// AllValue is the category/site-type sentinel that matches every site.
const AllValue = "all"

// Facets lists every facet in the order controls are rendered.
var Facets = []FacetName{
	FacetCategory,
	FacetSiteType,
	FacetProvince,
	FacetCounty,
	FacetSaint,
	FacetCentury,
}

// Valid reports whether f is a known facet.
func (f FacetName) Valid() bool {
	switch f {
	case FacetCategory, FacetCounty, FacetSaint, FacetProvince, FacetCentury, FacetSiteType:
		return true
	}
	return false
}

// ParseFacetName accepts both the canonical name and the underscore form used in
// query strings (site_type).
func ParseFacetName(s string) (FacetName, bool) {
	if s == "site_type" {
		return FacetSiteType, true
	}
	f := FacetName(s)
	return f, f.Valid()
}

// FilterState maps facets to their active value. A missing key or an empty value
// means the facet does not constrain the result.
type FilterState map[FacetName]string

// Get returns the active value of f, or "" when unset.
func (s FilterState) Get(f FacetName) string {
	return s[f]
}

// Active reports whether f constrains the result.
func (s FilterState) Active(f FacetName) bool {
	return s[f] != ""
}

// Clone returns an independent copy.
func (s FilterState) Clone() FilterState {
	out := make(FilterState, len(s))
	maps.Copy(out, s)
	return out
}

// Empty reports whether no facet is active.
func (s FilterState) Empty() bool {
	for _, v := range s {
		if v != "" {
			return false
		}
	}
	return true
}
