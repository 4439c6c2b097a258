package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/pkg/textnorm"
)

// SiteRepo implements ports.SiteRepository with pgx.
type SiteRepo struct {
	db *DB
}

// NewSiteRepo creates a new SiteRepo.
func NewSiteRepo(db *DB) *SiteRepo {
	return &SiteRepo{db: db}
}

const siteColumns = `
	id, title, category, counties, saints, centuries,
	ST_Y(location::geometry) AS lat,
	ST_X(location::geometry) AS lon,
	permalink, excerpt, thumbnail, provenance, updated_at`

const upsertSite = `
	INSERT INTO sites (id, title, category, counties, saints, centuries, location,
	                   permalink, excerpt, thumbnail, provenance, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6,
	        CASE WHEN $7::float8 IS NULL THEN NULL
	             ELSE ST_SetSRID(ST_MakePoint($8, $7), 4326)::geography END,
	        $9, $10, $11, $12, now())
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title, category = EXCLUDED.category,
	    counties = EXCLUDED.counties, saints = EXCLUDED.saints,
	    centuries = EXCLUDED.centuries, location = EXCLUDED.location,
	    permalink = EXCLUDED.permalink, excerpt = EXCLUDED.excerpt,
	    thumbnail = EXCLUDED.thumbnail, provenance = EXCLUDED.provenance,
	    updated_at = now()`

// UpsertBatch inserts or updates many sites using pgx.Batch. Existing rows keep
// their position in the listing order.
func (r *SiteRepo) UpsertBatch(ctx context.Context, sites []domain.Site) error {
	if len(sites) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range sites {
		var lat, lon *float64
		if s.Location != nil {
			lat, lon = &s.Location.Lat, &s.Location.Lon
		}
		batch.Queue(upsertSite,
			s.ID, s.Title, string(s.Category),
			nonNil(s.Counties), nonNil(s.Saints), nonNil(s.Centuries),
			lat, lon,
			s.Permalink, s.Excerpt, s.Thumbnail, s.Provenance,
		)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for _, s := range sites {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert site %s: %w", s.ID, err)
		}
	}
	return nil
}

// GetByID returns a site by id.
func (r *SiteRepo) GetByID(ctx context.Context, id string) (*domain.Site, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = $1`, id)
	s, err := scanSite(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("site %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List returns sites in import order. Category, site-type, county, province and
// century hints narrow the query; the saint hint is left to the caller because
// its free-text fallback does not map onto an index.
func (r *SiteRepo) List(ctx context.Context, hints domain.FilterState) ([]domain.Site, error) {
	where, args := listFilter(hints)
	q := `SELECT ` + siteColumns + ` FROM sites`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY seq`

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSites(rows)
}

func listFilter(hints domain.FilterState) (where []string, args []any) {
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	for _, f := range []domain.FacetName{domain.FacetCategory, domain.FacetSiteType} {
		if v := hints.Get(f); v != "" && v != domain.AllValue {
			where = append(where, `category = `+arg(v))
		}
	}
	if v := hints.Get(domain.FacetCounty); v != "" {
		where = append(where, `EXISTS (SELECT 1 FROM unnest(counties) c
			WHERE regexp_replace(lower(trim(c)), '\s+', '-', 'g') = `+arg(textnorm.Slug(v))+`)`)
	}
	if v := hints.Get(domain.FacetProvince); v != "" {
		where = append(where, `EXISTS (SELECT 1 FROM unnest(counties) c
			WHERE regexp_replace(lower(trim(c)), '\s+', '-', 'g') = ANY(`+arg(nonNil(domain.ProvinceCounties(textnorm.Slug(v))))+`))`)
	}
	if v := hints.Get(domain.FacetCentury); v != "" {
		where = append(where, arg(v)+` = ANY(centuries)`)
	}
	return where, args
}

// FindNearby returns located sites within radiusMeters using PostGIS ST_DWithin.
func (r *SiteRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Site, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+siteColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM sites
		WHERE location IS NOT NULL
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`, lon, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []domain.Site
	for rows.Next() {
		var (
			s        domain.Site
			lat, lon *float64
			category string
			dist     float64
		)
		if err := rows.Scan(
			&s.ID, &s.Title, &category, &s.Counties, &s.Saints, &s.Centuries,
			&lat, &lon,
			&s.Permalink, &s.Excerpt, &s.Thumbnail, &s.Provenance, &s.UpdatedAt,
			&dist,
		); err != nil {
			return nil, err
		}
		s.Category = domain.Category(category)
		s.Location = point(lat, lon)
		s.Distance = &dist
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// FacetCounts returns the number of sites per value of an array or category facet.
// Province counts are derived from county membership by the caller.
func (r *SiteRepo) FacetCounts(ctx context.Context, facet domain.FacetName) (map[string]int, error) {
	var q string
	switch facet {
	case domain.FacetCategory, domain.FacetSiteType:
		q = `SELECT category, count(*) FROM sites GROUP BY 1`
	case domain.FacetCounty:
		q = `SELECT v, count(DISTINCT id) FROM sites, unnest(counties) v GROUP BY 1`
	case domain.FacetSaint:
		q = `SELECT v, count(DISTINCT id) FROM sites, unnest(saints) v GROUP BY 1`
	case domain.FacetCentury:
		q = `SELECT v, count(DISTINCT id) FROM sites, unnest(centuries) v GROUP BY 1`
	default:
		return nil, fmt.Errorf("facet counts for %s: %w", facet, domain.ErrUnknownFacet)
	}

	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			v string
			n int
		)
		if err := rows.Scan(&v, &n); err != nil {
			return nil, err
		}
		counts[v] = n
	}
	return counts, rows.Err()
}

func scanSite(row pgx.Row) (*domain.Site, error) {
	var (
		s        domain.Site
		lat, lon *float64
		category string
	)
	if err := row.Scan(
		&s.ID, &s.Title, &category, &s.Counties, &s.Saints, &s.Centuries,
		&lat, &lon,
		&s.Permalink, &s.Excerpt, &s.Thumbnail, &s.Provenance, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Category = domain.Category(category)
	s.Location = point(lat, lon)
	return &s, nil
}

func collectSites(rows pgx.Rows) ([]domain.Site, error) {
	sites := []domain.Site{}
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *s)
	}
	return sites, rows.Err()
}

// point rebuilds a location; both coordinates are present or neither is.
func point(lat, lon *float64) *domain.GeoPoint {
	if lat == nil || lon == nil {
		return nil
	}
	return &domain.GeoPoint{Lat: *lat, Lon: *lon}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
