package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/core/filter"
	"github.com/samirrijal/sacredsites/internal/core/ports"
	"github.com/samirrijal/sacredsites/internal/pkg/metrics"
	"github.com/samirrijal/sacredsites/internal/pkg/telemetry"
)

// Cache key prefixes. ImportService invalidates both after an import.
const (
	siteCachePrefix  = "sites:"
	facetCachePrefix = "facets:"
)

var tracer = telemetry.Tracer("usecases")

// SiteService handles site queries. It is also the SiteSource directory pages
// fetch their working set from.
type SiteService struct {
	sites ports.SiteRepository
	cache ports.CacheService
	ttl   int
}

// NewSiteService creates a new SiteService. cache may be nil.
func NewSiteService(sites ports.SiteRepository, cache ports.CacheService, ttlSeconds int) *SiteService {
	if ttlSeconds <= 0 {
		ttlSeconds = 300
	}
	return &SiteService{sites: sites, cache: cache, ttl: ttlSeconds}
}

// List returns the sites passing state, in import order. The repository may
// narrow the query with state; the result is always re-checked with filter.Matches.
func (s *SiteService) List(ctx context.Context, state domain.FilterState) ([]domain.Site, error) {
	ctx, span := tracer.Start(ctx, "SiteService.List")
	defer span.End()

	cacheKey := siteCachePrefix + "list:" + stateKey(state)
	var sites []domain.Site
	if s.cacheGet(ctx, "site_list", cacheKey, &sites) {
		span.SetAttributes(telemetry.KeySiteCount.Int(len(sites)))
		return sites, nil
	}

	sites, err := s.sites.List(ctx, state)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list sites: %w", err)
	}
	sites = filter.Apply(sites, state)
	span.SetAttributes(telemetry.KeySiteCount.Int(len(sites)))

	s.cacheSet(ctx, cacheKey, sites)
	return sites, nil
}

// FetchSites implements ports.SiteSource. Failures are wrapped as fetch errors.
func (s *SiteService) FetchSites(ctx context.Context, hints domain.FilterState) ([]domain.Site, error) {
	sites, err := s.List(ctx, hints)
	if err != nil {
		return nil, &domain.FetchError{Op: "sites", Err: err}
	}
	return sites, nil
}

// Get returns a single site.
func (s *SiteService) Get(ctx context.Context, id string) (*domain.Site, error) {
	if id == "" {
		return nil, fmt.Errorf("site id must not be empty")
	}
	return s.sites.GetByID(ctx, id)
}

// FindNearby returns located sites within radiusMeters of the given point.
func (s *SiteService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Site, error) {
	if err := (domain.GeoPoint{Lat: lat, Lon: lon}).Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	if radiusMeters <= 0 || radiusMeters > 100000 {
		radiusMeters = 10000
	}

	cacheKey := fmt.Sprintf("%snearby:%.4f:%.4f:%.0f:%d", siteCachePrefix, lat, lon, radiusMeters, limit)
	var sites []domain.Site
	if s.cacheGet(ctx, "site_nearby", cacheKey, &sites) {
		return sites, nil
	}

	sites, err := s.sites.FindNearby(ctx, lat, lon, radiusMeters, limit)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKey, sites)
	return sites, nil
}

func (s *SiteService) cacheGet(ctx context.Context, op, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err == nil && json.Unmarshal(data, dst) == nil {
		metrics.CacheHits.WithLabelValues(op).Inc()
		return true
	}
	metrics.CacheMisses.WithLabelValues(op).Inc()
	return false
}

func (s *SiteService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, data, s.ttl)
	}
}

// stateKey renders state canonically: active facets sorted by name.
func stateKey(state domain.FilterState) string {
	parts := make([]string, 0, len(state))
	for f, v := range state {
		if v != "" {
			parts = append(parts, string(f)+"="+v)
		}
	}
	if len(parts) == 0 {
		return "all"
	}
	slices.Sort(parts)
	return strings.Join(parts, "&")
}
