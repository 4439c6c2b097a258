package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/sacredsites/internal/adapters/http"
	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/core/presenter"
	"github.com/samirrijal/sacredsites/internal/core/usecases"
)

// ---- Mock repository ----

type mockSiteRepo struct {
	listFn       func(ctx context.Context, hints domain.FilterState) ([]domain.Site, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.Site, error)
	findNearbyFn func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Site, error)
	countsFn     func(ctx context.Context, facet domain.FacetName) (map[string]int, error)
}

func (m *mockSiteRepo) UpsertBatch(ctx context.Context, s []domain.Site) error { return nil }
func (m *mockSiteRepo) List(ctx context.Context, hints domain.FilterState) ([]domain.Site, error) {
	if m.listFn != nil {
		return m.listFn(ctx, hints)
	}
	return nil, nil
}
func (m *mockSiteRepo) GetByID(ctx context.Context, id string) (*domain.Site, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockSiteRepo) FindNearby(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Site, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lon, radius, limit)
	}
	return nil, nil
}
func (m *mockSiteRepo) FacetCounts(ctx context.Context, facet domain.FacetName) (map[string]int, error) {
	if m.countsFn != nil {
		return m.countsFn(ctx, facet)
	}
	return map[string]int{}, nil
}

// ---- Fixtures ----

func loc(lat, lon float64) *domain.GeoPoint { return &domain.GeoPoint{Lat: lat, Lon: lon} }

func fixtureSites() []domain.Site {
	return []domain.Site{
		{ID: "glendalough", Title: "Glendalough", Category: domain.CategoryMonastic, Counties: []string{"Wicklow"}, Saints: []string{"St. Kevin"}, Location: loc(53.01, -6.33), Permalink: "/glendalough"},
		{ID: "clonmacnoise", Title: "Clonmacnoise", Category: domain.CategoryMonastic, Counties: []string{"Offaly"}, Saints: []string{"St. Ciarán"}, Location: loc(53.33, -7.99), Permalink: "/clonmacnoise"},
		{ID: "tobar-bhride", Title: "St. Brigid's Well", Category: domain.CategoryHolyWell, Counties: []string{"Kildare"}, Saints: []string{"St. Brigid"}, Location: loc(53.15, -6.91), Permalink: "/tobar-bhride"},
		{ID: "gallarus", Title: "Gallarus Oratory", Category: domain.CategoryChristianSite, Counties: []string{"Kerry"}, Permalink: "/gallarus"},
		{ID: "monasterboice", Title: "Monasterboice", Category: domain.CategoryHighCross, Counties: []string{"Louth"}, Location: loc(53.78, -6.42), Permalink: "/monasterboice"},
	}
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New()
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(repo *mockSiteRepo) *handler.Dependencies {
	if repo == nil {
		repo = &mockSiteRepo{listFn: func(context.Context, domain.FilterState) ([]domain.Site, error) {
			return fixtureSites(), nil
		}}
	}
	return &handler.Dependencies{
		Sites:  usecases.NewSiteService(repo, nil, 0),
		Facets: usecases.NewFacetService(repo, nil, 0),
	}
}

func get(t *testing.T, app *fiber.App, url string) (int, []byte, map[string]string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", url, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	headers := map[string]string{}
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return resp.StatusCode, body, headers
}

// ---- Site handler tests ----

func TestListSites_All(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body, _ := get(t, app, "/v1/sites")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var result struct {
		Data       []domain.Site      `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 5 || len(result.Data) != 5 {
		t.Errorf("expected 5 sites, got total=%d len=%d", result.Pagination.Total, len(result.Data))
	}
}

func TestListSites_ProvinceFilter(t *testing.T) {
	var gotHints domain.FilterState
	repo := &mockSiteRepo{listFn: func(_ context.Context, hints domain.FilterState) ([]domain.Site, error) {
		gotHints = hints
		return fixtureSites(), nil
	}}
	app := setupApp(makeDeps(repo))

	status, body, _ := get(t, app, "/v1/sites?province=leinster")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if gotHints.Get(domain.FacetProvince) != "leinster" {
		t.Errorf("expected province hint to reach the repository, got %v", gotHints)
	}

	var result struct {
		Data []domain.Site `json:"data"`
	}
	json.Unmarshal(body, &result)
	var ids []string
	for _, s := range result.Data {
		ids = append(ids, s.ID)
	}
	// Wicklow, Offaly, Kildare and Louth are in Leinster; Kerry is not.
	want := "glendalough,clonmacnoise,tobar-bhride,monasterboice"
	if got := strings.Join(ids, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestListSites_SiteTypeAlias(t *testing.T) {
	app := setupApp(makeDeps(nil))

	_, body, _ := get(t, app, "/v1/sites?site_type=holy-well")
	var result struct {
		Pagination handler.Pagination `json:"pagination"`
	}
	json.Unmarshal(body, &result)
	if result.Pagination.Total != 1 {
		t.Errorf("expected 1 holy well, got %d", result.Pagination.Total)
	}
}

func TestListSites_PaginationAndLinks(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body, headers := get(t, app, "/v1/sites?category=monastic-site&offset=1&limit=1")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var result struct {
		Data       []domain.Site      `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	json.Unmarshal(body, &result)
	if result.Pagination.Total != 2 || len(result.Data) != 1 || result.Data[0].ID != "clonmacnoise" {
		t.Fatalf("unexpected page: %+v", result)
	}

	link := headers["Link"]
	for _, want := range []string{`rel="first"`, `rel="prev"`, `rel="last"`, "category=monastic-site"} {
		if !strings.Contains(link, want) {
			t.Errorf("Link header %q missing %s", link, want)
		}
	}
	if strings.Contains(link, `rel="next"`) {
		t.Errorf("last page should have no next link: %q", link)
	}
}

func TestListSites_RepoError(t *testing.T) {
	repo := &mockSiteRepo{listFn: func(context.Context, domain.FilterState) ([]domain.Site, error) {
		return nil, errors.New("connection refused")
	}}
	app := setupApp(makeDeps(repo))

	status, body, _ := get(t, app, "/v1/sites")
	if status != 500 {
		t.Fatalf("expected 500, got %d", status)
	}
	var apiErr handler.APIError
	json.Unmarshal(body, &apiErr)
	if apiErr.Code != "internal_error" {
		t.Errorf("expected internal_error, got %q", apiErr.Code)
	}
	if strings.Contains(apiErr.Message, "connection refused") {
		t.Errorf("internal details leaked: %q", apiErr.Message)
	}
}

func TestGetSite_Success(t *testing.T) {
	repo := &mockSiteRepo{getByIDFn: func(_ context.Context, id string) (*domain.Site, error) {
		s := fixtureSites()[0]
		s.ID = id
		return &s, nil
	}}
	app := setupApp(makeDeps(repo))

	status, body, _ := get(t, app, "/v1/sites/glendalough")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var site domain.Site
	json.Unmarshal(body, &site)
	if site.ID != "glendalough" || site.Title != "Glendalough" {
		t.Errorf("unexpected site %+v", site)
	}
}

func TestGetSite_NotFound(t *testing.T) {
	repo := &mockSiteRepo{getByIDFn: func(_ context.Context, id string) (*domain.Site, error) {
		return nil, fmt.Errorf("site %s: %w", id, domain.ErrNotFound)
	}}
	app := setupApp(makeDeps(repo))

	status, _, _ := get(t, app, "/v1/sites/nowhere")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestNearbySites(t *testing.T) {
	var gotRadius float64
	repo := &mockSiteRepo{findNearbyFn: func(_ context.Context, lat, lon, radius float64, limit int) ([]domain.Site, error) {
		gotRadius = radius
		return fixtureSites()[:1], nil
	}}
	app := setupApp(makeDeps(repo))

	status, _, headers := get(t, app, "/v1/sites/nearby?lat=53.0&lon=-6.3&radius=2500")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if gotRadius != 2500 {
		t.Errorf("expected radius 2500, got %v", gotRadius)
	}
	if cc := headers["Cache-Control"]; cc != "public, max-age=300" {
		t.Errorf("expected nearby Cache-Control, got %q", cc)
	}
}

func TestNearbySites_BadParams(t *testing.T) {
	app := setupApp(makeDeps(nil))

	for _, url := range []string{
		"/v1/sites/nearby",
		"/v1/sites/nearby?lat=53",
		"/v1/sites/nearby?lat=95&lon=0",
		"/v1/sites/nearby?lat=53&lon=-6&radius=20000",
	} {
		if status, _, _ := get(t, app, url); status != 400 {
			t.Errorf("%s: expected 400, got %d", url, status)
		}
	}
}

// ---- Facet handler tests ----

func TestFacetOptions_County(t *testing.T) {
	repo := &mockSiteRepo{listFn: func(context.Context, domain.FilterState) ([]domain.Site, error) {
		sites := fixtureSites()
		sites = append(sites, domain.Site{ID: "old-kildare", Title: "Old Kildare", Category: domain.CategoryMonastic, Counties: []string{"Kildare", "kildare"}})
		return sites, nil
	}}
	app := setupApp(makeDeps(repo))

	status, body, _ := get(t, app, "/v1/facets/county")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var opts []domain.FacetOption
	json.Unmarshal(body, &opts)
	counts := map[string]int{}
	for _, o := range opts {
		counts[o.Value] = o.Count
	}
	if counts["kildare"] != 2 || counts["wicklow"] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestFacetOptions_Unknown(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body, _ := get(t, app, "/v1/facets/colour")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	var apiErr handler.APIError
	json.Unmarshal(body, &apiErr)
	if apiErr.Code != "unknown_facet" {
		t.Errorf("expected unknown_facet, got %q", apiErr.Code)
	}
}

func TestProvinces(t *testing.T) {
	app := setupApp(makeDeps(nil))

	_, body, _ := get(t, app, "/v1/provinces")
	var provinces []domain.Province
	json.Unmarshal(body, &provinces)
	if len(provinces) != 4 {
		t.Fatalf("expected 4 provinces, got %d", len(provinces))
	}
}

// ---- Page handler tests ----

func TestPage_HomepageDefaults(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body, _ := get(t, app, "/v1/pages/homepage?page_size=2")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var page handler.PageResponse
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatal(err)
	}
	if page.State.Get(domain.FacetCategory) != domain.AllValue {
		t.Errorf("expected category=all default, got %v", page.State)
	}
	if page.Page.Total != 5 || page.Page.PageCount != 3 || len(page.Page.Items) != 2 {
		t.Errorf("unexpected page %+v", page.Page)
	}
	// Gallarus has no coordinates.
	if len(page.Markers) != 4 {
		t.Errorf("expected 4 markers, got %d", len(page.Markers))
	}
}

func TestPage_SaintsRelevance(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body, _ := get(t, app, "/v1/pages/saints?saint=brigid&sort=relevance")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var page handler.PageResponse
	json.Unmarshal(body, &page)
	if page.Page.Total != 1 || page.Page.Items[0].ID != "tobar-bhride" {
		t.Errorf("unexpected result %+v", page.Page.Items)
	}
	if page.Page.Sort != presenter.SortRelevance {
		t.Errorf("expected relevance sort, got %s", page.Page.Sort)
	}
}

func TestPage_Errors(t *testing.T) {
	app := setupApp(makeDeps(nil))

	cases := map[string]int{
		"/v1/pages/blog":                    404,
		"/v1/pages/homepage?sort=random":    400,
		"/v1/pages/homepage?view=carousel":  400,
		"/v1/pages/homepage?century=12th":   400, // century is not a homepage facet
		"/v1/pages/archive?site_type=all":   200,
		"/v1/pages/archive?county=Kildare":  200,
		"/v1/pages/saints?province=munster": 200,
	}
	for url, want := range cases {
		if status, body, _ := get(t, app, url); status != want {
			t.Errorf("%s: expected %d, got %d: %s", url, want, status, body)
		}
	}
}

func TestPage_FetchErrorIsBadGateway(t *testing.T) {
	repo := &mockSiteRepo{listFn: func(context.Context, domain.FilterState) ([]domain.Site, error) {
		return nil, errors.New("timeout")
	}}
	app := setupApp(makeDeps(repo))

	status, body, _ := get(t, app, "/v1/pages/homepage")
	if status != 502 {
		t.Fatalf("expected 502, got %d", status)
	}
	var apiErr handler.APIError
	json.Unmarshal(body, &apiErr)
	if apiErr.Code != "upstream_error" {
		t.Errorf("expected upstream_error, got %q", apiErr.Code)
	}
}

// ---- Legacy endpoint ----

func TestLegacyFilter(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body, headers := get(t, app, "/v1/filter?category=monastic-site")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if headers["Deprecation"] != "true" || headers["Sunset"] == "" {
		t.Errorf("expected deprecation headers, got %v", headers)
	}
	if !strings.Contains(headers["Link"], "successor-version") {
		t.Errorf("expected successor link, got %q", headers["Link"])
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Count int              `json:"count"`
			Sites []presenter.Card `json:"sites"`
		} `json:"data"`
	}
	json.Unmarshal(body, &result)
	if !result.Success || result.Data.Count != 2 || len(result.Data.Sites) != 2 {
		t.Errorf("unexpected legacy response %s", body)
	}
}

func TestLegacyFilter_DisabledFacet(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body, _ := get(t, app, "/v1/filter?profile=homepage&century=6th")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if !strings.Contains(string(body), `"success":false`) {
		t.Errorf("expected failure envelope, got %s", body)
	}
}

// ---- GraphQL ----

func TestGraphQL_Sites(t *testing.T) {
	app := setupApp(makeDeps(nil))

	query := `{"query":"{ sites(county: \"kildare\") { id title category category_label location { lat } } provinces { slug } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(query))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var result struct {
		Data struct {
			Sites []struct {
				ID            string `json:"id"`
				Category      string `json:"category"`
				CategoryLabel string `json:"category_label"`
				Location      struct {
					Lat float64 `json:"lat"`
				} `json:"location"`
			} `json:"sites"`
			Provinces []domain.Province `json:"provinces"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Errors) > 0 {
		t.Fatalf("graphql errors: %v", result.Errors)
	}
	if len(result.Data.Sites) != 1 || result.Data.Sites[0].ID != "tobar-bhride" {
		t.Fatalf("unexpected sites %+v", result.Data.Sites)
	}
	if result.Data.Sites[0].CategoryLabel != "Holy Well" || result.Data.Sites[0].Location.Lat != 53.15 {
		t.Errorf("unexpected fields %+v", result.Data.Sites[0])
	}
	if len(result.Data.Provinces) != 4 {
		t.Errorf("expected 4 provinces, got %d", len(result.Data.Provinces))
	}
}

// ---- Middleware ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps(nil))
	if status, _, _ := get(t, app, "/v1/health"); status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestReady_NoDB(t *testing.T) {
	app := setupApp(makeDeps(nil))
	status, body, _ := get(t, app, "/v1/ready")
	if status != 503 {
		t.Fatalf("expected 503 without a database, got %d", status)
	}
	if !strings.Contains(string(body), `"database":"not configured"`) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps(nil))
	_, _, headers := get(t, app, "/v1/provinces")
	if headers["X-Api-Version"] != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", headers["X-Api-Version"])
	}
}

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps(nil))

	_, _, headers := get(t, app, "/v1/provinces")
	etag := headers["Etag"]
	if etag == "" {
		t.Fatal("expected an ETag")
	}

	req := httptest.NewRequest("GET", "/v1/provinces", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps(nil))
	if status, _, _ := get(t, app, "/ws/map"); status != fiber.StatusUpgradeRequired {
		t.Errorf("expected 426, got %d", status)
	}
}

func TestAccessLogMiddleware(t *testing.T) {
	var buf strings.Builder
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	app := setupApp(makeDeps(nil))
	get(t, app, "/v1/sites/nowhere")

	out := buf.String()
	for _, want := range []string{`"status":404`, `"route":"/v1/sites/:id"`, `"request_id":`, `"level":"WARN"`} {
		if !strings.Contains(out, want) {
			t.Errorf("access log missing %s: %s", want, out)
		}
	}
}
