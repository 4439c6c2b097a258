package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samirrijal/sacredsites/internal/adapters/jsonfile"
	natsadapter "github.com/samirrijal/sacredsites/internal/adapters/nats"
	"github.com/samirrijal/sacredsites/internal/adapters/postgres"
	"github.com/samirrijal/sacredsites/internal/adapters/valkey"
	"github.com/samirrijal/sacredsites/internal/core/ports"
	"github.com/samirrijal/sacredsites/internal/core/usecases"
	"github.com/samirrijal/sacredsites/internal/pkg/telemetry"
)

var (
	runSource string
	runFile   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one import in-process",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		exporter, source, err := selectExporter()
		if err != nil {
			return err
		}

		if cfg.Telemetry.Enabled {
			shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
			if err != nil {
				slog.Warn("telemetry init failed", "error", err)
			} else {
				defer shutdown()
			}
		}

		svc, cleanup, err := newImportService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := svc.Run(ctx, source, exporter)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}

		fmt.Printf("Imported %d of %d sites from %s (%d dropped, %d duplicates, %d cache entries invalidated) in %s\n",
			res.Upserted, res.Received, res.Source, res.Dropped, res.Duplicates, res.Invalidated, res.Duration)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runSource, "source", "wp", "Import source: wp or file")
	runCmd.Flags().StringVar(&runFile, "file", "sites.json", "JSON export to read when --source=file")
	rootCmd.AddCommand(runCmd)
}

func selectExporter() (ports.SiteExporter, string, error) {
	switch runSource {
	case "wp", sourceWordPress:
		c, err := newWordPressClient(cfg.WordPress)
		if err != nil {
			return nil, "", fmt.Errorf("wordpress client: %w", err)
		}
		return c, sourceWordPress, nil
	case sourceFile:
		return jsonfile.New(runFile), sourceFile, nil
	}
	return nil, "", fmt.Errorf("unknown source %q (want wp or file)", runSource)
}

// newImportService wires the import service. Cache and NATS are optional: an
// import without them still stores the sites.
func newImportService(ctx context.Context) (*usecases.ImportService, func(), error) {
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	closers := []func(){db.Close}

	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, sessions will not be notified", "error", err)
	} else {
		events = pub
		closers = append(closers, pub.Close)
	}

	var cache ports.CacheInvalidator
	if c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix); err != nil {
		slog.Warn("valkey unavailable, cached listings will expire on their own", "error", err)
	} else {
		cache = c
		closers = append(closers, c.Close)
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return usecases.NewImportService(postgres.NewSiteRepo(db), events, cache), cleanup, nil
}
