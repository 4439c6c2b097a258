package usecases_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/samirrijal/sacredsites/internal/core/domain"
)

// --- Mock SiteRepository ---

type mockSiteRepo struct {
	upsertBatchFn func(ctx context.Context, sites []domain.Site) error
	getByIDFn     func(ctx context.Context, id string) (*domain.Site, error)
	listFn        func(ctx context.Context, hints domain.FilterState) ([]domain.Site, error)
	findNearbyFn  func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Site, error)
	facetCountsFn func(ctx context.Context, facet domain.FacetName) (map[string]int, error)
}

func (m *mockSiteRepo) UpsertBatch(ctx context.Context, sites []domain.Site) error {
	if m.upsertBatchFn != nil {
		return m.upsertBatchFn(ctx, sites)
	}
	return nil
}

func (m *mockSiteRepo) GetByID(ctx context.Context, id string) (*domain.Site, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSiteRepo) List(ctx context.Context, hints domain.FilterState) ([]domain.Site, error) {
	if m.listFn != nil {
		return m.listFn(ctx, hints)
	}
	return nil, nil
}

func (m *mockSiteRepo) FindNearby(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Site, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lon, radius, limit)
	}
	return nil, nil
}

func (m *mockSiteRepo) FacetCounts(ctx context.Context, facet domain.FacetName) (map[string]int, error) {
	if m.facetCountsFn != nil {
		return m.facetCountsFn(ctx, facet)
	}
	return map[string]int{}, nil
}

// --- In-memory cache ---

var errMiss = errors.New("miss")

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []*domain.SitesChangedEvent
	err    error
}

func (m *mockPublisher) PublishSitesChanged(ctx context.Context, ev *domain.SitesChangedEvent) error {
	m.events = append(m.events, ev)
	return m.err
}

// --- fixtures ---

func testSites() []domain.Site {
	return []domain.Site{
		{ID: "clonmacnoise", Title: "Clonmacnoise", Category: domain.CategoryMonastic, Counties: []string{"Offaly"}, Saints: []string{"St. Ciarán"}},
		{ID: "kildare", Title: "Kildare Cathedral", Category: domain.CategoryChristianSite, Counties: []string{"Kildare"}, Saints: []string{"Saint Brigid"}},
		{ID: "faughart", Title: "Faughart", Category: domain.CategoryHolyWell, Counties: []string{"Louth"}, Saints: []string{"St. Brigid"}},
		{ID: "knock", Title: "Knock Shrine", Category: domain.CategoryPilgrimage, Counties: []string{"Mayo"}},
	}
}
