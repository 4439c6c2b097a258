package ports

import "github.com/samirrijal/sacredsites/internal/core/domain"

// MapSurface is the part of a mapping SDK the directory drives. Implementations
// translate the calls to whatever renders the map (a browser-side SDK over a
// session channel, a recorder in tests).
type MapSurface interface {
	CreateMarker(spec domain.MarkerSpec) Marker
	OpenInfo(m Marker, content domain.InfoContent)
	CloseInfo()
	FitBounds(b domain.Bounds)
	SetView(center domain.GeoPoint, zoom int)
}

// Marker is a handle to one marker created on a MapSurface.
type Marker interface {
	ID() string
	Position() domain.GeoPoint
	Remove()
	// OnClick registers the primary-interaction listener, replacing any previous one.
	OnClick(fn func())
}
