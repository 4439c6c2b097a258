package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/core/ports"
	"github.com/samirrijal/sacredsites/internal/pkg/metrics"
	"github.com/samirrijal/sacredsites/internal/pkg/telemetry"
)

// ImportResult summarises one import run.
type ImportResult struct {
	Source      string        `json:"source"`
	Received    int           `json:"received"`
	Upserted    int           `json:"upserted"`
	Dropped     int           `json:"dropped"`
	Duplicates  int           `json:"duplicates"`
	Invalidated int           `json:"invalidated"`
	Duration    time.Duration `json:"duration"`
}

// ImportService loads site records from an upstream export into the store.
type ImportService struct {
	sites     ports.SiteRepository
	events    ports.EventPublisher
	cache     ports.CacheInvalidator
	batchSize int
}

// NewImportService creates a new ImportService. events and cache may be nil.
func NewImportService(sites ports.SiteRepository, events ports.EventPublisher, cache ports.CacheInvalidator) *ImportService {
	return &ImportService{sites: sites, events: events, cache: cache, batchSize: 500}
}

// Run exports from src and imports the result.
func (s *ImportService) Run(ctx context.Context, source string, src ports.SiteExporter) (*ImportResult, error) {
	ctx, span := tracer.Start(ctx, "ImportService.Run")
	defer span.End()
	span.SetAttributes(telemetry.KeySource.String(source))

	sites, err := src.Export(ctx)
	if err != nil {
		return nil, &domain.FetchError{Op: "export " + source, Err: err}
	}
	return s.Import(ctx, source, sites)
}

// Import validates, de-duplicates and upserts sites, then invalidates cached
// listings and announces the change. Malformed records are dropped one by one.
func (s *ImportService) Import(ctx context.Context, source string, sites []domain.Site) (*ImportResult, error) {
	start := time.Now()
	res, err := s.Store(ctx, source, sites)
	if err != nil {
		return res, err
	}
	if err := s.Finish(ctx, res); err != nil {
		return res, err
	}
	res.Duration = time.Since(start)
	metrics.ImportDuration.WithLabelValues(source).Observe(res.Duration.Seconds())
	return res, nil
}

// Store validates and upserts sites in batches without touching caches or
// publishing anything.
func (s *ImportService) Store(ctx context.Context, source string, sites []domain.Site) (*ImportResult, error) {
	res := &ImportResult{Source: source, Received: len(sites)}
	valid := s.Prepare(sites, res)
	for i := 0; i < len(valid); i += s.batchSize {
		end := min(i+s.batchSize, len(valid))
		if err := s.sites.UpsertBatch(ctx, valid[i:end]); err != nil {
			return res, fmt.Errorf("upsert sites: %w", err)
		}
		res.Upserted = end
	}
	return res, nil
}

// Prepare drops malformed records and duplicate ids. A later record for the
// same id replaces the earlier one but keeps its position.
func (s *ImportService) Prepare(sites []domain.Site, res *ImportResult) []domain.Site {
	out := make([]domain.Site, 0, len(sites))
	index := make(map[string]int, len(sites))
	for i := range sites {
		if err := sites[i].Validate(); err != nil {
			res.Dropped++
			slog.Warn("dropping site record", "source", res.Source, "error", err)
			continue
		}
		if j, ok := index[sites[i].ID]; ok {
			res.Duplicates++
			out[j] = sites[i]
			continue
		}
		index[sites[i].ID] = len(out)
		out = append(out, sites[i])
	}
	if res.Dropped > 0 {
		metrics.MalformedSitesDropped.WithLabelValues("import").Add(float64(res.Dropped))
	}
	return out
}

// Finish invalidates caches and publishes the change event for an import whose
// records have been stored.
func (s *ImportService) Finish(ctx context.Context, res *ImportResult) error {
	metrics.SitesImported.WithLabelValues(res.Source).Add(float64(res.Upserted))

	if s.cache != nil {
		for _, prefix := range []string{siteCachePrefix, facetCachePrefix} {
			n, err := s.cache.DeletePrefix(ctx, prefix)
			if err != nil {
				slog.Warn("cache invalidation failed", "prefix", prefix, "error", err)
				continue
			}
			res.Invalidated += n
		}
	}

	if s.events != nil {
		ev := &domain.SitesChangedEvent{
			Source:    res.Source,
			Upserted:  res.Upserted,
			Dropped:   res.Dropped,
			ChangedAt: time.Now().UTC(),
		}
		if err := s.events.PublishSitesChanged(ctx, ev); err != nil {
			return fmt.Errorf("publish sites changed: %w", err)
		}
	}

	slog.Info("import finished",
		"source", res.Source,
		"received", res.Received,
		"upserted", res.Upserted,
		"dropped", res.Dropped,
		"duplicates", res.Duplicates,
	)
	return nil
}
