package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		route, raw, want string
	}{
		{"/v1/sites/:id", "/v1/sites/glendalough", "/v1/sites/:id"},
		{"/", "/", "/"},
		{"/", "/wp-admin", "unmatched"},
		{"", "/x", "unmatched"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.route, tt.raw); got != tt.want {
			t.Errorf("normalizePath(%q, %q) = %q, want %q", tt.route, tt.raw, got, tt.want)
		}
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/metrics", Handler())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	if _, err := app.Test(httptest.NewRequest("GET", "/ping", nil), -1); err != nil {
		t.Fatalf("ping: %v", err)
	}
	ActiveMapSessions.Set(0)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"sacredsites_http_requests_total", "sacredsites_ws_active_map_sessions"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %s in /metrics output", name)
		}
	}
}

type fakeStat struct{}

func (fakeStat) AcquiredConns() int32           { return 3 }
func (fakeStat) IdleConns() int32               { return 5 }
func (fakeStat) TotalConns() int32              { return 8 }
func (fakeStat) EmptyAcquireCount() int64       { return 12 }
func (fakeStat) AcquireDuration() time.Duration { return 1500 * time.Millisecond }

func TestUpdateDBPoolMetrics(t *testing.T) {
	UpdateDBPoolMetrics(fakeStat{})

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"acquired", testutil.ToFloat64(DBPoolConnsAcquired), 3},
		{"idle", testutil.ToFloat64(DBPoolConnsIdle), 5},
		{"open", testutil.ToFloat64(DBPoolConnsOpen), 8},
		{"empty acquires", testutil.ToFloat64(DBPoolEmptyAcquires), 12},
		{"acquire seconds", testutil.ToFloat64(DBPoolAcquireSeconds), 1.5},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}
