// Package wordpress reads directory content from the WordPress REST API of the
// source site.
package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/pkg/metrics"
	"github.com/samirrijal/sacredsites/internal/pkg/telemetry"
	"github.com/samirrijal/sacredsites/internal/pkg/textnorm"
)

var tracer = telemetry.Tracer("wordpress")

// Config configures a Client.
type Config struct {
	BaseURL           string
	PostTypes         []string
	PerPage           int
	Concurrency       int
	RequestsPerSecond float64
	Timeout           time.Duration
	// Categories gives the category of posts of a type that carry no
	// site_category term. Types missing here fall back to DefaultCategory.
	Categories      map[string]domain.Category
	DefaultCategory domain.Category
}

// CategoryTable converts a configured post type to category table.
func CategoryTable(m map[string]string) map[string]domain.Category {
	out := make(map[string]domain.Category, len(m))
	for pt, cat := range m {
		out[pt] = domain.Category(cat)
	}
	return out
}

// Client pages through the posts of each configured post type.
type Client struct {
	base      *url.URL
	postTypes []string
	perPage   int
	workers   int
	limiter   *rate.Limiter
	http      *http.Client
	typeCat   map[string]domain.Category
	fallback  domain.Category
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("wordpress base url %q is not absolute", cfg.BaseURL)
	}
	if len(cfg.PostTypes) == 0 {
		return nil, fmt.Errorf("no post types configured")
	}
	if cfg.PerPage <= 0 || cfg.PerPage > 100 {
		cfg.PerPage = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.DefaultCategory == "" {
		cfg.DefaultCategory = domain.CategoryChristianSite
	}
	if !cfg.DefaultCategory.Valid() {
		return nil, fmt.Errorf("default category %q is not a known category", cfg.DefaultCategory)
	}
	for pt, cat := range cfg.Categories {
		if !cat.Valid() {
			return nil, fmt.Errorf("post type %s maps to unknown category %q", pt, cat)
		}
	}
	return &Client{
		base:      base,
		postTypes: cfg.PostTypes,
		perPage:   cfg.PerPage,
		workers:   cfg.Concurrency,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		http:      &http.Client{Timeout: cfg.Timeout},
		typeCat:   cfg.Categories,
		fallback:  cfg.DefaultCategory,
	}, nil
}

// Export implements ports.SiteExporter. Post types are read in configured order
// and posts keep the CMS order within each type.
func (c *Client) Export(ctx context.Context) ([]domain.Site, error) {
	var all []domain.Site
	for _, pt := range c.postTypes {
		sites, err := c.FetchSites(ctx, pt)
		if err != nil {
			return nil, err
		}
		all = append(all, sites...)
	}
	return all, nil
}

// FetchSites reads every page of one post type. The first page reports the page
// count; the rest are fetched concurrently and reassembled in order.
func (c *Client) FetchSites(ctx context.Context, postType string) ([]domain.Site, error) {
	first, totalPages, err := c.fetchPage(ctx, postType, 1)
	if err != nil {
		return nil, err
	}

	pages := make([][]post, max(totalPages, 1))
	pages[0] = first

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for p := 2; p <= totalPages; p++ {
		g.Go(func() error {
			posts, _, err := c.fetchPage(gctx, postType, p)
			if err != nil {
				return err
			}
			pages[p-1] = posts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var sites []domain.Site
	for _, posts := range pages {
		for i := range posts {
			sites = append(sites, toSite(&posts[i], c.typeCategory(postType)))
		}
	}
	return sites, nil
}

func (c *Client) fetchPage(ctx context.Context, postType string, page int) ([]post, int, error) {
	ctx, span := tracer.Start(ctx, "wordpress.fetchPage")
	defer span.End()
	span.SetAttributes(telemetry.KeyPostType.String(postType), telemetry.KeyPage.Int(page))

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter: %w", err)
	}

	u := c.base.JoinPath("wp-json", "wp", "v2", postType)
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("_embed", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.SourcePageErrors.WithLabelValues(postType).Inc()
		return nil, 0, &domain.FetchError{Op: fmt.Sprintf("%s page %d", postType, page), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.SourcePageErrors.WithLabelValues(postType).Inc()
		return nil, 0, &domain.FetchError{
			Op:  fmt.Sprintf("%s page %d", postType, page),
			Err: fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	var posts []post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		metrics.SourcePageErrors.WithLabelValues(postType).Inc()
		return nil, 0, &domain.FetchError{
			Op:  fmt.Sprintf("%s page %d", postType, page),
			Err: fmt.Errorf("decoding response: %w", err),
		}
	}
	totalPages, _ := strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))
	return posts, totalPages, nil
}

// Taxonomies the directory reads from embedded terms.
const (
	taxCounty   = "county"
	taxSaint    = "saint"
	taxCentury  = "century"
	taxCategory = "site_category"
)

// typeCategory is the category for posts of postType without a site_category
// term. A post type named after a category maps to it.
func (c *Client) typeCategory(postType string) domain.Category {
	if cat, ok := c.typeCat[postType]; ok {
		return cat
	}
	if cat := domain.Category(postType); cat.Valid() {
		return cat
	}
	return c.fallback
}

// toSite maps a post. Posts without a valid site_category term get fallback.
// Validation is left to the importer so a bad post is dropped on its own.
func toSite(p *post, fallback domain.Category) domain.Site {
	s := domain.Site{
		ID:        p.Slug,
		Title:     textnorm.CleanHTML(p.Title.Rendered),
		Permalink: p.Link,
		Excerpt:   textnorm.CleanHTML(p.Excerpt.Rendered),
	}
	if s.ID == "" && p.ID != 0 {
		s.ID = strconv.Itoa(p.ID)
	}
	if t, err := time.Parse("2006-01-02T15:04:05", p.Modified); err == nil {
		s.UpdatedAt = t.UTC()
	}

	for _, group := range p.Embedded.Terms {
		for _, t := range group {
			name := textnorm.CleanHTML(t.Name)
			switch t.Taxonomy {
			case taxCounty:
				s.Counties = append(s.Counties, name)
			case taxSaint:
				s.Saints = append(s.Saints, name)
			case taxCentury:
				s.Centuries = append(s.Centuries, name)
			case taxCategory:
				if s.Category == "" && domain.Category(t.Slug).Valid() {
					s.Category = domain.Category(t.Slug)
				}
			}
		}
	}
	if s.Category == "" {
		s.Category = fallback
	}
	if len(p.Embedded.FeaturedMedia) > 0 {
		s.Thumbnail = p.Embedded.FeaturedMedia[0].SourceURL
	}
	if p.ACF != nil {
		s.Provenance = textnorm.CleanHTML(p.ACF.Provenance)
		if p.ACF.Latitude.Valid && p.ACF.Longitude.Valid {
			s.Location = &domain.GeoPoint{Lat: p.ACF.Latitude.Value, Lon: p.ACF.Longitude.Value}
		}
	}
	return s
}
