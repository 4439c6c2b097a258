package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/sacredsites/internal/core/usecases"
)

// ImportInput is the input for the site import workflow.
type ImportInput struct {
	Source string
}

// SiteImportWorkflow stores a fresh export of the site collection, then
// invalidates caches and notifies live map sessions. An export that yields no
// valid records is not announced.
func SiteImportWorkflow(ctx workflow.Context, input ImportInput) (*usecases.ImportResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting site import workflow", "source", input.Source)
	start := workflow.Now(ctx)

	storeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		HeartbeatTimeout:    5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 30 * time.Second,
			MaximumAttempts: 3,
		},
	})

	var res *usecases.ImportResult
	if err := workflow.ExecuteActivity(storeCtx, ActivityStoreSites, input.Source).Get(ctx, &res); err != nil {
		return nil, err
	}
	if res.Upserted == 0 {
		logger.Warn("import stored nothing, skipping announcement", "received", res.Received, "dropped", res.Dropped)
		return res, nil
	}

	announceCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 5,
		},
	})
	if err := workflow.ExecuteActivity(announceCtx, ActivityAnnounceImport, res).Get(ctx, &res); err != nil {
		return nil, err
	}

	res.Duration = workflow.Now(ctx).Sub(start)
	logger.Info("Site import finished", "upserted", res.Upserted, "invalidated", res.Invalidated)
	return res, nil
}
