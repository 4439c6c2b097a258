// Package mapcmd implements the map surface as a stream of JSON commands that a
// browser-side map SDK replays. Marker clicks travel back in through Click.
package mapcmd

import (
	"github.com/google/uuid"

	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/core/ports"
)

// Op names a map command.
type Op string

const (
	OpMarkerCreate Op = "marker.create"
	OpMarkerRemove Op = "marker.remove"
	OpInfoOpen     Op = "info.open"
	OpInfoClose    Op = "info.close"
	OpFit          Op = "map.fit"
	OpView         Op = "map.view"
)

// Command is one instruction for the client map.
type Command struct {
	Op       Op                  `json:"op"`
	MarkerID string              `json:"marker_id,omitempty"`
	Marker   *domain.MarkerSpec  `json:"marker,omitempty"`
	Info     *domain.InfoContent `json:"info,omitempty"`
	Bounds   *domain.Bounds      `json:"bounds,omitempty"`
	Center   *domain.GeoPoint    `json:"center,omitempty"`
	Zoom     int                 `json:"zoom,omitempty"`
}

// Surface records commands until they are drained. Not safe for concurrent use;
// it belongs to the same owner as the adapter drawing on it.
type Surface struct {
	pending []Command
	markers map[string]*marker
	newID   func() string
}

// New creates an empty surface.
func New() *Surface {
	return &Surface{
		markers: make(map[string]*marker),
		newID:   func() string { return uuid.NewString() },
	}
}

var _ ports.MapSurface = (*Surface)(nil)

func (s *Surface) CreateMarker(spec domain.MarkerSpec) ports.Marker {
	m := &marker{id: s.newID(), pos: spec.Position, surface: s}
	s.markers[m.id] = m
	s.emit(Command{Op: OpMarkerCreate, MarkerID: m.id, Marker: &spec})
	return m
}

func (s *Surface) OpenInfo(m ports.Marker, content domain.InfoContent) {
	s.emit(Command{Op: OpInfoOpen, MarkerID: m.ID(), Info: &content})
}

func (s *Surface) CloseInfo() {
	s.emit(Command{Op: OpInfoClose})
}

func (s *Surface) FitBounds(b domain.Bounds) {
	s.emit(Command{Op: OpFit, Bounds: &b})
}

func (s *Surface) SetView(center domain.GeoPoint, zoom int) {
	s.emit(Command{Op: OpView, Center: &center, Zoom: zoom})
}

// Click runs the click listener of a live marker. It reports false for unknown or
// removed markers, which happens when a click races a resync.
func (s *Surface) Click(markerID string) bool {
	m, ok := s.markers[markerID]
	if !ok || m.click == nil {
		return false
	}
	m.click()
	return true
}

// Live returns the number of markers not yet removed.
func (s *Surface) Live() int { return len(s.markers) }

// Drain returns and clears the queued commands.
func (s *Surface) Drain() []Command {
	out := s.pending
	s.pending = nil
	return out
}

func (s *Surface) emit(c Command) {
	s.pending = append(s.pending, c)
}

type marker struct {
	id      string
	pos     domain.GeoPoint
	click   func()
	surface *Surface
}

func (m *marker) ID() string                { return m.id }
func (m *marker) Position() domain.GeoPoint { return m.pos }
func (m *marker) OnClick(fn func())         { m.click = fn }

func (m *marker) Remove() {
	if _, ok := m.surface.markers[m.id]; !ok {
		return
	}
	delete(m.surface.markers, m.id)
	m.surface.emit(Command{Op: OpMarkerRemove, MarkerID: m.id})
}
