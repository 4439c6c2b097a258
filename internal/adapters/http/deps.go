package http

import (
	"github.com/samirrijal/sacredsites/internal/adapters/postgres"
	"github.com/samirrijal/sacredsites/internal/adapters/valkey"
	"github.com/samirrijal/sacredsites/internal/core/ports"
	"github.com/samirrijal/sacredsites/internal/core/usecases"
	"github.com/samirrijal/sacredsites/internal/session"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sites  *usecases.SiteService
	Facets *usecases.FacetService
	// Events feeds change notifications to map sessions. May be nil.
	Events  ports.EventSubscriber
	Session session.Config
	DB      *postgres.DB
	Cache   *valkey.Cache
}
