package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/core/filter"
	"github.com/samirrijal/sacredsites/internal/core/mapsync"
	"github.com/samirrijal/sacredsites/internal/core/presenter"
)

// facetQuery reads facet values from the query string. site_type is accepted
// as an alias of site-type.
func facetQuery(c *fiber.Ctx) domain.FilterState {
	state := domain.FilterState{}
	for _, f := range domain.Facets {
		v := c.Query(string(f))
		if v == "" && f == domain.FacetSiteType {
			v = c.Query("site_type")
		}
		if v != "" {
			state[f] = v
		}
	}
	return state
}

// ListSitesHandler returns the sites matching the facet parameters, paginated.
func ListSitesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sites, err := deps.Sites.List(c.UserContext(), facetQuery(c))
		if err != nil {
			return errFromDomain(c, err)
		}

		offset, limit := parsePagination(c, 50, 500)
		pg := Pagination{Offset: offset, Limit: limit, Total: len(sites)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: paginate(sites, pg), Pagination: pg})
	}
}

// GetSiteHandler returns a single site by ID.
func GetSiteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "site id is required")
		}
		site, err := deps.Sites.Get(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(site)
	}
}

// NearbySitesHandler returns sites within a radius of a point, nearest first.
func NearbySitesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		if err := (domain.GeoPoint{Lat: lat, Lon: lon}).Validate(); err != nil {
			return errBadRequest(c, err.Error())
		}
		radius := c.QueryFloat("radius", 5000)
		if radius <= 0 || radius > 10000 {
			return errBadRequest(c, "radius must be between 1 and 10000 meters")
		}
		limit := c.QueryInt("limit", 20)

		sites, err := deps.Sites.FindNearby(c.UserContext(), lat, lon, radius, limit)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(sites)
	}
}

// FacetOptionsHandler returns the selectable values of a facet with counts.
func FacetOptionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		facet, ok := domain.ParseFacetName(c.Params("name"))
		if !ok {
			return newError(c, fiber.StatusBadRequest, "unknown_facet", "unknown facet "+c.Params("name"))
		}
		opts, err := deps.Facets.FetchFacetOptions(c.UserContext(), facet)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(opts)
	}
}

// ProvincesHandler returns the static province table.
func ProvincesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=86400")
		return c.JSON(domain.Provinces)
	}
}

// PageResponse is a server-rendered directory page: the first results page and
// the markers to place before any client-side filtering happens.
type PageResponse struct {
	Profile string              `json:"profile"`
	State   domain.FilterState  `json:"state"`
	Page    presenter.Page      `json:"page"`
	Markers []domain.MarkerSpec `json:"markers"`
}

// PageHandler renders a directory page for the named profile.
func PageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, err := filter.LookupProfile(c.Params("profile"))
		if err != nil {
			return errNotFound(c, err.Error())
		}
		req, err := pageRequest(c, deps.Session.PageSize)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		engine, err := filterSites(c, deps, profile)
		if err != nil {
			return errFromDomain(c, err)
		}

		result := engine.ResultSet()
		state := engine.State()
		req.Saint = state.Get(domain.FacetSaint)

		markers := make([]domain.MarkerSpec, 0, len(result))
		for i := range result {
			s := &result[i]
			if !s.HasLocation() {
				continue
			}
			markers = append(markers, domain.MarkerSpec{
				SiteID:   s.ID,
				Position: *s.Location,
				Title:    s.Title,
				Icon:     mapsync.CategoryIcon(s.Category),
			})
		}

		return c.JSON(PageResponse{
			Profile: profile.Name,
			State:   state,
			Page:    presenter.Render(result, req),
			Markers: markers,
		})
	}
}

// LegacyFilterHandler answers the old AJAX filter call in its
// {"success":..., "data":...} envelope. The whole result is returned unpaged.
func LegacyFilterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fail := func(status int, msg string) error {
			return c.Status(status).JSON(fiber.Map{"success": false, "data": fiber.Map{"message": msg}})
		}

		profile, err := filter.LookupProfile(c.Query("profile", filter.Homepage.Name))
		if err != nil {
			return fail(fiber.StatusBadRequest, err.Error())
		}
		engine, err := filterSites(c, deps, profile)
		if err != nil {
			if domain.IsFetchError(err) {
				return fail(fiber.StatusBadGateway, "site data is temporarily unavailable")
			}
			return fail(fiber.StatusBadRequest, err.Error())
		}

		result := engine.ResultSet()
		cards := make([]presenter.Card, len(result))
		for i := range result {
			cards[i] = presenter.NewCard(&result[i])
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"count": len(cards),
				"sites": cards,
				"state": engine.State(),
			},
		})
	}
}

// filterSites loads the full collection into an engine for profile and applies
// the facet parameters of the request. Facets are applied in control order, so
// when both province and county are given the county wins.
func filterSites(c *fiber.Ctx, deps *Dependencies, profile filter.Profile) (*filter.Engine, error) {
	sites, err := deps.Sites.FetchSites(c.UserContext(), nil)
	if err != nil {
		return nil, err
	}
	engine := filter.NewEngine(profile, filter.WithLogger(LoggerFromCtx(c.UserContext())))
	engine.Load(sites)

	params := facetQuery(c)
	for _, f := range domain.Facets {
		if v, ok := params[f]; ok {
			if err := engine.SetFacet(f, v); err != nil {
				return nil, err
			}
		}
	}
	return engine, nil
}

func pageRequest(c *fiber.Ctx, defSize int) (presenter.Request, error) {
	sort, err := presenter.ParseSortKey(c.Query("sort"))
	if err != nil {
		return presenter.Request{}, err
	}
	view, err := presenter.ParseViewMode(c.Query("view"))
	if err != nil {
		return presenter.Request{}, err
	}
	if defSize <= 0 {
		defSize = presenter.DefaultPageSize
	}
	size := c.QueryInt("page_size", defSize)
	if size <= 0 || size > 100 {
		size = defSize
	}
	return presenter.Request{
		Page:     max(c.QueryInt("page", 0), 0),
		PageSize: size,
		Sort:     sort,
		View:     view,
	}, nil
}
