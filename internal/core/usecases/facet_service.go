package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/core/filter"
	"github.com/samirrijal/sacredsites/internal/core/ports"
	"github.com/samirrijal/sacredsites/internal/pkg/metrics"
	"github.com/samirrijal/sacredsites/internal/pkg/textnorm"
)

// FacetService builds facet choices with live counts.
type FacetService struct {
	sites ports.SiteRepository
	cache ports.CacheService
	ttl   int
	group singleflight.Group
}

// NewFacetService creates a new FacetService. cache may be nil.
func NewFacetService(sites ports.SiteRepository, cache ports.CacheService, ttlSeconds int) *FacetService {
	if ttlSeconds <= 0 {
		ttlSeconds = 300
	}
	return &FacetService{sites: sites, cache: cache, ttl: ttlSeconds}
}

// FetchFacetOptions implements ports.FacetOptionSource. Concurrent misses for
// the same facet share one database round trip.
func (s *FacetService) FetchFacetOptions(ctx context.Context, facet domain.FacetName) ([]domain.FacetOption, error) {
	if !facet.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFacet, facet)
	}

	cacheKey := facetCachePrefix + string(facet)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var opts []domain.FacetOption
			if err := json.Unmarshal(data, &opts); err == nil {
				metrics.CacheHits.WithLabelValues("facet_options").Inc()
				return opts, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("facet_options").Inc()
	}

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		opts, err := s.build(ctx, facet)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if data, err := json.Marshal(opts); err == nil {
				_ = s.cache.Set(ctx, cacheKey, data, s.ttl)
			}
		}
		return opts, nil
	})
	if err != nil {
		return nil, &domain.FetchError{Op: "facet " + string(facet), Err: err}
	}
	return v.([]domain.FacetOption), nil
}

func (s *FacetService) build(ctx context.Context, facet domain.FacetName) ([]domain.FacetOption, error) {
	switch facet {
	case domain.FacetProvince:
		return s.provinceOptions(ctx)
	case domain.FacetCounty:
		return s.mergedOptions(ctx, func(x *domain.Site) []string { return x.Counties }, textnorm.Slug)
	case domain.FacetSaint:
		return s.mergedOptions(ctx, func(x *domain.Site) []string { return x.Saints }, textnorm.SaintKey)
	}

	counts, err := s.sites.FacetCounts(ctx, facet)
	if err != nil {
		return nil, err
	}

	switch facet {
	case domain.FacetCategory, domain.FacetSiteType:
		opts := make([]domain.FacetOption, 0, len(domain.Categories))
		for _, c := range domain.Categories {
			opts = append(opts, domain.FacetOption{Value: string(c), Label: c.Label(), Count: counts[string(c)]})
		}
		return opts, nil
	default:
		opts := make([]domain.FacetOption, 0, len(counts))
		for v, n := range counts {
			opts = append(opts, domain.FacetOption{Value: v, Label: v, Count: n})
		}
		sortOptions(opts)
		return opts, nil
	}
}

// provinceOptions counts sites per province. A site with counties in two
// provinces counts once in each.
func (s *FacetService) provinceOptions(ctx context.Context) ([]domain.FacetOption, error) {
	sites, err := s.sites.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	opts := make([]domain.FacetOption, 0, len(domain.Provinces))
	for _, p := range domain.Provinces {
		state := domain.FilterState{domain.FacetProvince: p.Slug}
		n := 0
		for i := range sites {
			if filter.Matches(&sites[i], state) {
				n++
			}
		}
		opts = append(opts, domain.FacetOption{Value: p.Slug, Label: p.Name, Count: n})
	}
	return opts, nil
}

// mergedOptions folds spelling variants ("St. Brigid", "Saint Brigid") into
// one option keyed by key(raw) and counts each site once per option, however
// many variants it carries. The alphabetically first label wins.
func (s *FacetService) mergedOptions(ctx context.Context, values func(*domain.Site) []string, key func(string) string) ([]domain.FacetOption, error) {
	sites, err := s.sites.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return mergeOptions(sites, values, key), nil
}

func mergeOptions(sites []domain.Site, values func(*domain.Site) []string, key func(string) string) []domain.FacetOption {
	byKey := make(map[string]*domain.FacetOption)
	var order []string
	for i := range sites {
		seen := make(map[string]bool)
		for _, v := range values(&sites[i]) {
			k := key(v)
			if k == "" {
				continue
			}
			o, ok := byKey[k]
			if !ok {
				o = &domain.FacetOption{Value: k, Label: v}
				byKey[k] = o
				order = append(order, k)
			} else if v < o.Label {
				o.Label = v
			}
			if !seen[k] {
				seen[k] = true
				o.Count++
			}
		}
	}

	opts := make([]domain.FacetOption, 0, len(order))
	for _, k := range order {
		opts = append(opts, *byKey[k])
	}
	sortOptions(opts)
	return opts
}

func sortOptions(opts []domain.FacetOption) {
	c := collate.New(language.English, collate.IgnoreCase, collate.IgnoreDiacritics)
	slices.SortStableFunc(opts, func(a, b domain.FacetOption) int {
		if d := c.CompareString(a.Label, b.Label); d != 0 {
			return d
		}
		return strings.Compare(a.Value, b.Value)
	})
}
