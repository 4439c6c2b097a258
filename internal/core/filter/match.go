package filter

import (
	"slices"
	"strings"

	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/pkg/textnorm"
)

// predicate reports whether a site passes one facet with the given active value.
type predicate func(site *domain.Site, value string) bool

var predicates = map[domain.FacetName]predicate{
	domain.FacetCategory: matchCategory,
	domain.FacetSiteType: matchCategory,
	domain.FacetCounty:   matchCounty,
	domain.FacetProvince: matchProvince,
	domain.FacetSaint:    matchSaint,
	domain.FacetCentury:  matchCentury,
}

// Matches reports whether site passes every active facet of state. Facets are
// evaluated independently and combined with AND.
func Matches(site *domain.Site, state domain.FilterState) bool {
	for facet, value := range state {
		if value == "" {
			continue
		}
		p, ok := predicates[facet]
		if !ok {
			continue
		}
		if !p(site, value) {
			return false
		}
	}
	return true
}

// Apply returns the sites of src passing state, in their original order.
func Apply(src []domain.Site, state domain.FilterState) []domain.Site {
	out := make([]domain.Site, 0, len(src))
	for i := range src {
		if Matches(&src[i], state) {
			out = append(out, src[i])
		}
	}
	return out
}

func matchCategory(site *domain.Site, value string) bool {
	return value == domain.AllValue || string(site.Category) == value
}

func matchCounty(site *domain.Site, value string) bool {
	want := textnorm.Slug(value)
	return slices.ContainsFunc(site.Counties, func(c string) bool {
		return textnorm.Slug(c) == want
	})
}

func matchProvince(site *domain.Site, value string) bool {
	members := domain.ProvinceCounties(textnorm.Slug(value))
	if len(members) == 0 {
		return false
	}
	return slices.ContainsFunc(site.Counties, func(c string) bool {
		return slices.Contains(members, textnorm.Slug(c))
	})
}

// matchSaint first looks for the saint in the curated taxonomy and, when that
// fails, searches the prose for the bare name. The free-text pass admits false
// positives (a "Brigid Street" in an excerpt); do not tighten it.
func matchSaint(site *domain.Site, value string) bool {
	if SaintInTaxonomy(site, value) {
		return true
	}
	bare := textnorm.BareName(value)
	if bare == "" {
		return false
	}
	haystack := textnorm.Fold(site.Title + " " + site.Excerpt + " " + site.Provenance)
	// "st. <name>" and "saint <name>" both contain the bare name, so one
	// substring test covers the prefixed spellings.
	return strings.Contains(haystack, bare)
}

// SaintInTaxonomy reports whether the site's curated saint list contains value
// after normalisation. Relevance sorting uses the same test.
func SaintInTaxonomy(site *domain.Site, value string) bool {
	want := textnorm.SaintKey(value)
	if want == "" {
		return false
	}
	return slices.ContainsFunc(site.Saints, func(s string) bool {
		return textnorm.SaintKey(s) == want
	})
}

func matchCentury(site *domain.Site, value string) bool {
	return slices.Contains(site.Centuries, value)
}
