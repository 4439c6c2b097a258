package presenter

import (
	"fmt"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/core/filter"
)

// SortKey orders a result page.
type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortName      SortKey = "name"
	SortCounty    SortKey = "county"
	SortCategory  SortKey = "category"
)

// ParseSortKey validates s. An empty string means relevance.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case "":
		return SortRelevance, nil
	case SortRelevance, SortName, SortCounty, SortCategory:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Names are compared under Irish collation, ignoring case.
var collationTag = language.MustParse("ga")

// SortSites returns a sorted copy of sites. Every key sorts stably, so ties keep
// their result-set order.
//
// Relevance is a partition rather than a score: when saint is non-empty, sites
// listing that saint in their taxonomy come first. Without a saint it keeps the
// input order. The other keys compare the first element of the field, with empty
// values first.
func SortSites(sites []domain.Site, key SortKey, saint string) []domain.Site {
	out := slices.Clone(sites)
	switch key {
	case SortName:
		sortBy(out, func(s *domain.Site) string { return s.Title })
	case SortCounty:
		sortBy(out, func(s *domain.Site) string { return s.PrimaryCounty() })
	case SortCategory:
		sortBy(out, func(s *domain.Site) string { return s.Category.Label() })
	default:
		if saint == "" {
			return out
		}
		slices.SortStableFunc(out, func(a, b domain.Site) int {
			ra, rb := filter.SaintInTaxonomy(&a, saint), filter.SaintInTaxonomy(&b, saint)
			switch {
			case ra == rb:
				return 0
			case ra:
				return -1
			default:
				return 1
			}
		})
	}
	return out
}

func sortBy(sites []domain.Site, field func(*domain.Site) string) {
	c := collate.New(collationTag, collate.IgnoreCase)
	slices.SortStableFunc(sites, func(a, b domain.Site) int {
		return c.CompareString(field(&a), field(&b))
	})
}
