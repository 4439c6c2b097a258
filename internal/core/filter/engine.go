// Package filter holds the faceted filtering engine behind the directory pages.
//
// An Engine is owned by one page controller and is not safe for concurrent use.
// Every mutation recomputes the result set eagerly and notifies listeners before
// returning, so reads never compute and two mutations are always observed in the
// order they were issued.
package filter

import (
	"fmt"
	"log/slog"

	"github.com/samirrijal/sacredsites/internal/core/domain"
)

// Listener is notified with the new result set after every recompute.
type Listener func(result []domain.Site)

type listenerEntry struct {
	id int
	fn Listener
}

// Engine holds the loaded site collection and the active facet selections.
type Engine struct {
	profile    Profile
	logger     *slog.Logger
	sites      []domain.Site
	state      domain.FilterState
	result     []domain.Site
	listeners  []listenerEntry
	nextID     int
	recomputes int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report dropped records.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine for the given page profile. The profile's default
// values become the initial state.
func NewEngine(profile Profile, opts ...Option) *Engine {
	e := &Engine{
		profile: profile,
		logger:  slog.Default(),
		state:   profile.Defaults.Clone(),
		result:  []domain.Site{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Profile returns the page profile the engine was created with.
func (e *Engine) Profile() Profile { return e.profile }

// Load replaces the collection. Records failing validation are dropped one by one
// and the rest are kept; the number dropped is returned. An empty input is valid
// and yields an empty result.
func (e *Engine) Load(sites []domain.Site) int {
	kept := make([]domain.Site, 0, len(sites))
	dropped := 0
	for i := range sites {
		if err := sites[i].Validate(); err != nil {
			dropped++
			e.logger.Warn("dropping site record", "profile", e.profile.Name, "error", err)
			continue
		}
		kept = append(kept, sites[i])
	}
	e.sites = kept
	e.recompute()
	return dropped
}

// SetFacet sets one facet. An empty value unsets it. County and province exclude
// each other: selecting one clears the other, unsetting one leaves the other alone.
func (e *Engine) SetFacet(name domain.FacetName, value string) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownFacet, name)
	}
	if !e.profile.Enabled(name) {
		return fmt.Errorf("%w: %s on %s", domain.ErrFacetDisabled, name, e.profile.Name)
	}
	if value == "" {
		delete(e.state, name)
		e.recompute()
		return nil
	}
	switch name {
	case domain.FacetCounty:
		delete(e.state, domain.FacetProvince)
	case domain.FacetProvince:
		delete(e.state, domain.FacetCounty)
	}
	e.state[name] = value
	e.recompute()
	return nil
}

// ClearAll unsets every facet, including profile defaults.
func (e *Engine) ClearAll() {
	e.state = domain.FilterState{}
	e.recompute()
}

// ResultSet returns the current result. The slice is replaced, never modified, on
// recompute; callers must not modify it.
func (e *Engine) ResultSet() []domain.Site {
	return e.result
}

// Sites returns the loaded collection.
func (e *Engine) Sites() []domain.Site {
	return e.sites
}

// State returns a copy of the active selections.
func (e *Engine) State() domain.FilterState {
	return e.state.Clone()
}

// Recomputes returns how many times the result set has been derived.
func (e *Engine) Recomputes() int {
	return e.recomputes
}

// OnResultSetChanged registers a listener. Listeners run synchronously, in
// registration order, after each recompute. The returned func removes it.
func (e *Engine) OnResultSetChanged(fn Listener) (unsubscribe func()) {
	id := e.nextID
	e.nextID++
	e.listeners = append(e.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) recompute() {
	e.result = Apply(e.sites, e.state)
	e.recomputes++
	// Snapshot so a listener may unsubscribe while being notified.
	listeners := append([]listenerEntry(nil), e.listeners...)
	for _, l := range listeners {
		l.fn(e.result)
	}
}
