// Package mapsync keeps a map's markers in step with a filter result.
package mapsync

import (
	"math"

	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/core/filter"
	"github.com/samirrijal/sacredsites/internal/core/ports"
	"github.com/samirrijal/sacredsites/internal/pkg/geospatial"
	"github.com/samirrijal/sacredsites/internal/pkg/textnorm"
)

const (
	// DefaultTolerance is how far, in degrees, Focus looks for a marker.
	DefaultTolerance = 1e-4
	// DefaultExcerptLength is the popup excerpt length in runes.
	DefaultExcerptLength = 100
	// DefaultSingleMarkerZoom is used when fitting a single marker.
	DefaultSingleMarkerZoom = 14
	// DefaultFocusZoom is the zoom Focus moves to.
	DefaultFocusZoom = 15
	// MaxInfoSaints is how many saints a popup lists.
	MaxInfoSaints = 3
)

// DetailHandler receives the site whose marker was clicked.
type DetailHandler func(site domain.Site)

type placed struct {
	marker ports.Marker
	site   domain.Site
}

// Adapter owns the markers on one MapSurface. Like filter.Engine it belongs to a
// single page controller and is not safe for concurrent use.
type Adapter struct {
	surface    ports.MapSurface
	markers    []placed
	excerptLen int
	singleZoom int
	focusZoom  int
	icon       func(domain.Category) string
	onDetail   DetailHandler
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithExcerptLength sets the popup excerpt length in runes.
func WithExcerptLength(n int) Option {
	return func(a *Adapter) { a.excerptLen = n }
}

// WithSingleMarkerZoom sets the zoom used by FitToMarkers for one marker.
func WithSingleMarkerZoom(z int) Option {
	return func(a *Adapter) { a.singleZoom = z }
}

// WithFocusZoom sets the zoom used by Focus.
func WithFocusZoom(z int) Option {
	return func(a *Adapter) { a.focusZoom = z }
}

// WithIcons chooses a marker icon per category.
func WithIcons(fn func(domain.Category) string) Option {
	return func(a *Adapter) { a.icon = fn }
}

// WithDetailHandler registers the marker-click callback.
func WithDetailHandler(fn DetailHandler) Option {
	return func(a *Adapter) { a.onDetail = fn }
}

// New creates an adapter drawing on surface.
func New(surface ports.MapSurface, opts ...Option) *Adapter {
	a := &Adapter{
		surface:    surface,
		excerptLen: DefaultExcerptLength,
		singleZoom: DefaultSingleMarkerZoom,
		focusZoom:  DefaultFocusZoom,
		icon:       CategoryIcon,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Attach syncs to the engine's current result and to every later one. The
// viewport is refitted after each sync. The returned func detaches.
func (a *Adapter) Attach(e *filter.Engine) (detach func()) {
	a.Sync(e.ResultSet())
	a.FitToMarkers()
	return e.OnResultSetChanged(func(result []domain.Site) {
		a.Sync(result)
		a.FitToMarkers()
	})
}

// Sync removes every marker it placed before and creates one marker per site
// with a location. It returns the number of markers now on the map.
func (a *Adapter) Sync(result []domain.Site) int {
	a.clear()
	for i := range result {
		s := result[i]
		if !s.HasLocation() {
			continue
		}
		m := a.surface.CreateMarker(domain.MarkerSpec{
			SiteID:   s.ID,
			Position: *s.Location,
			Title:    s.Title,
			Icon:     a.icon(s.Category),
		})
		a.markers = append(a.markers, placed{marker: m, site: s})
		m.OnClick(func() {
			a.surface.OpenInfo(m, InfoContent(&s, a.excerptLen))
			if a.onDetail != nil {
				a.onDetail(s)
			}
		})
	}
	return len(a.markers)
}

// Len returns the number of markers currently placed.
func (a *Adapter) Len() int { return len(a.markers) }

// Focus centres the view on the marker nearest (lat, lng), if one lies within
// tolerance degrees, and opens its popup. It reports whether a marker was found.
// A non-positive tolerance means DefaultTolerance.
func (a *Adapter) Focus(lat, lng, tolerance float64) bool {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	target := domain.GeoPoint{Lat: lat, Lon: lng}
	best := -1
	bestDist := math.Inf(1)
	for i, p := range a.markers {
		pos := p.marker.Position()
		if !pos.Near(target, tolerance) {
			continue
		}
		if d := geospatial.Haversine(lat, lng, pos.Lat, pos.Lon); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return false
	}
	p := a.markers[best]
	a.surface.SetView(p.marker.Position(), a.focusZoom)
	a.surface.OpenInfo(p.marker, InfoContent(&p.site, a.excerptLen))
	return true
}

// FitToMarkers adjusts the view to cover every marker. With no markers the view
// is left alone; a single marker is centred at a fixed zoom.
func (a *Adapter) FitToMarkers() {
	switch len(a.markers) {
	case 0:
		return
	case 1:
		a.surface.SetView(a.markers[0].marker.Position(), a.singleZoom)
		return
	}
	points := make([][2]float64, len(a.markers))
	for i, p := range a.markers {
		pos := p.marker.Position()
		points[i] = [2]float64{pos.Lat, pos.Lon}
	}
	minLat, minLon, maxLat, maxLon, _ := geospatial.Extent(points)
	b := domain.Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
	if b.IsPoint() {
		a.surface.SetView(b.Center(), a.singleZoom)
		return
	}
	a.surface.FitBounds(b)
}

// Site returns the site behind a placed marker.
func (a *Adapter) Site(markerID string) (domain.Site, bool) {
	for _, p := range a.markers {
		if p.marker.ID() == markerID {
			return p.site, true
		}
	}
	return domain.Site{}, false
}

func (a *Adapter) clear() {
	if len(a.markers) > 0 {
		a.surface.CloseInfo()
	}
	for _, p := range a.markers {
		p.marker.Remove()
	}
	a.markers = a.markers[:0]
}

// InfoContent builds the popup for a site: title, primary county, up to three
// saints, the excerpt cut to excerptLen runes and the permalink.
func InfoContent(s *domain.Site, excerptLen int) domain.InfoContent {
	if excerptLen <= 0 {
		excerptLen = DefaultExcerptLength
	}
	saints := s.Saints
	more := len(saints) > MaxInfoSaints
	if more {
		saints = saints[:MaxInfoSaints]
	}
	return domain.InfoContent{
		SiteID:     s.ID,
		Title:      s.Title,
		County:     s.PrimaryCounty(),
		Saints:     append([]string(nil), saints...),
		MoreSaints: more,
		Excerpt:    textnorm.Truncate(s.Excerpt, excerptLen),
		Link:       s.Permalink,
	}
}

// CategoryIcon is the default marker icon name for a category.
func CategoryIcon(c domain.Category) string {
	if !c.Valid() {
		return "marker-default"
	}
	return "marker-" + string(c)
}
