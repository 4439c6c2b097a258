package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/sacredsites/internal/core/ports"
	"github.com/samirrijal/sacredsites/internal/core/usecases"
)

// Activity names as registered with the worker.
const (
	ActivityStoreSites     = "StoreSites"
	ActivityAnnounceImport = "AnnounceImport"
)

// ImportActivities holds the activity implementations for the site import workflow.
type ImportActivities struct {
	Importer  *usecases.ImportService
	Exporters map[string]ports.SiteExporter
}

// StoreSites exports the collection from source and upserts it. Export and
// store share one activity so the records never pass through workflow history.
func (a *ImportActivities) StoreSites(ctx context.Context, source string) (*usecases.ImportResult, error) {
	exp, ok := a.Exporters[source]
	if !ok {
		return nil, fmt.Errorf("unknown import source %q", source)
	}
	sites, err := exp.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", source, err)
	}
	activity.RecordHeartbeat(ctx, len(sites))

	res, err := a.Importer.Store(ctx, source, sites)
	if err != nil {
		return nil, err
	}
	slog.Info("sites stored", "source", source, "received", res.Received, "upserted", res.Upserted)
	return res, nil
}

// AnnounceImport invalidates cached listings and publishes the change event.
func (a *ImportActivities) AnnounceImport(ctx context.Context, res *usecases.ImportResult) (*usecases.ImportResult, error) {
	if err := a.Importer.Finish(ctx, res); err != nil {
		return nil, fmt.Errorf("announce import: %w", err)
	}
	return res, nil
}
