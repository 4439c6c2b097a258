package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/sacredsites/internal/adapters/wordpress"
	natsadapter "github.com/samirrijal/sacredsites/internal/adapters/nats"
	"github.com/samirrijal/sacredsites/internal/adapters/postgres"
	"github.com/samirrijal/sacredsites/internal/adapters/valkey"
	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/core/ports"
	"github.com/samirrijal/sacredsites/internal/core/usecases"
	"github.com/samirrijal/sacredsites/internal/pkg/config"
	"github.com/samirrijal/sacredsites/internal/pkg/logging"
	"github.com/samirrijal/sacredsites/internal/workflows"
)

func main() {
	cfg, err := config.Load("sacredsites-importer-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, sessions will not be notified", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	var cache ports.CacheInvalidator
	if c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer c.Close()
		cache = c
	}

	wp, err := wordpress.New(wordpress.Config{
		BaseURL:           cfg.WordPress.BaseURL,
		PostTypes:         cfg.WordPress.PostTypes,
		PerPage:           cfg.WordPress.PerPage,
		Concurrency:       cfg.WordPress.Concurrency,
		RequestsPerSecond: cfg.WordPress.RequestsPerSecond,
		Timeout:           time.Duration(cfg.WordPress.Timeout) * time.Second,
		Categories:        wordpress.CategoryTable(cfg.WordPress.Categories),
		DefaultCategory:   domain.Category(cfg.WordPress.DefaultCategory),
	})
	if err != nil {
		log.Fatalf("wordpress client: %v", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.SiteImportWorkflow)
	w.RegisterActivity(&workflows.ImportActivities{
		Importer: usecases.NewImportService(postgres.NewSiteRepo(db), events, cache),
		Exporters: map[string]ports.SiteExporter{
			"wordpress": wp,
		},
	})

	slog.Info("import worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
