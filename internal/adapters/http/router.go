package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/sacredsites/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// legacyFilterSunset is when GET /v1/filter goes away.
var legacyFilterSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Directory pages are embedded on the public site.
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,OPTIONS",
	}))

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		Next: func(c *fiber.Ctx) bool {
			return websocket.IsWebSocketUpgrade(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/v1/filter", SunsetDate: legacyFilterSunset, Alternative: "/v1/pages/{profile}"},
	}))

	// Health & readiness, no timeout
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/sites", timeout.NewWithContext(ListSitesHandler(deps), requestTimeout))
	v1.Get("/sites/nearby", timeout.NewWithContext(NearbySitesHandler(deps), requestTimeout))
	v1.Get("/sites/:id", timeout.NewWithContext(GetSiteHandler(deps), requestTimeout))
	v1.Get("/facets/:name", timeout.NewWithContext(FacetOptionsHandler(deps), requestTimeout))
	v1.Get("/provinces", ProvincesHandler())
	v1.Get("/pages/:profile", timeout.NewWithContext(PageHandler(deps), requestTimeout))
	v1.Get("/filter", timeout.NewWithContext(LegacyFilterHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/map", websocket.New(MapSessionHandler(deps), websocket.Config{
		HandshakeTimeout: 10 * time.Second,
	}))
}
