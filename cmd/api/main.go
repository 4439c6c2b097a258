package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/sacredsites/internal/adapters/http"
	natsadapter "github.com/samirrijal/sacredsites/internal/adapters/nats"
	"github.com/samirrijal/sacredsites/internal/adapters/postgres"
	"github.com/samirrijal/sacredsites/internal/adapters/valkey"
	"github.com/samirrijal/sacredsites/internal/core/ports"
	"github.com/samirrijal/sacredsites/internal/core/usecases"
	"github.com/samirrijal/sacredsites/internal/pkg/config"
	"github.com/samirrijal/sacredsites/internal/pkg/logging"
	"github.com/samirrijal/sacredsites/internal/pkg/telemetry"
	"github.com/samirrijal/sacredsites/internal/session"
)

func main() {
	cfg, err := config.Load("sacredsites-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	// Cache. A nil *valkey.Cache must not end up inside the interface.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
	if err != nil {
		slog.Warn("valkey unavailable, serving uncached", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS change notifications for map sessions
	var events ports.EventSubscriber
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, map sessions will not live-refresh", "error", err)
	} else {
		defer sub.Close()
		events = sub
	}

	repo := postgres.NewSiteRepo(db)
	deps := &http.Dependencies{
		Sites:  usecases.NewSiteService(repo, cacheSvc, cfg.Directory.CacheTTL),
		Facets: usecases.NewFacetService(repo, cacheSvc, cfg.Directory.CacheTTL),
		Events: events,
		Session: session.Config{
			PageSize:         cfg.Directory.PageSize,
			ExcerptLength:    cfg.Directory.ExcerptLength,
			FocusTolerance:   cfg.Directory.FocusTolerance,
			SingleMarkerZoom: cfg.Directory.SingleMarkerZoom,
			FocusZoom:        cfg.Directory.FocusZoom,
			Debounce:         cfg.Directory.SearchDebounce(),
		},
		DB:    db,
		Cache: cache,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "SacredSites API",
	})
	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
