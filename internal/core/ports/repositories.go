package ports

import (
	"context"

	"github.com/samirrijal/sacredsites/internal/core/domain"
)

// SiteRepository persists sites.
type SiteRepository interface {
	UpsertBatch(ctx context.Context, sites []domain.Site) error
	GetByID(ctx context.Context, id string) (*domain.Site, error)
	// List returns sites in insertion order. Implementations may use hints to
	// narrow the result server-side; callers always re-apply their own predicate.
	List(ctx context.Context, hints domain.FilterState) ([]domain.Site, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Site, error)
	// FacetCounts returns the number of sites carrying each value of a facet.
	FacetCounts(ctx context.Context, facet domain.FacetName) (map[string]int, error)
}

// SiteSource is the data source a page controller fetches its working set from.
type SiteSource interface {
	FetchSites(ctx context.Context, hints domain.FilterState) ([]domain.Site, error)
}

// FacetOptionSource populates facet controls with live counts.
type FacetOptionSource interface {
	FetchFacetOptions(ctx context.Context, facet domain.FacetName) ([]domain.FacetOption, error)
}

// SiteExporter reads the full site collection from an upstream system (the CMS
// export or a file).
type SiteExporter interface {
	Export(ctx context.Context) ([]domain.Site, error)
}
