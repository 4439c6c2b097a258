// Package directory composes the filter engine, the map adapter and the results
// presenter for one page view.
//
// Everything except the site fetch runs on the owner's goroutine. Refresh starts
// the fetch on its own goroutine and hands the completion back through the
// Dispatcher, so it is applied on the owner's goroutine too. Only the most recent
// request is applied; earlier completions are discarded.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/core/filter"
	"github.com/samirrijal/sacredsites/internal/core/mapsync"
	"github.com/samirrijal/sacredsites/internal/core/ports"
	"github.com/samirrijal/sacredsites/internal/core/presenter"
)

// Dispatcher runs fn on the goroutine that owns the controller.
type Dispatcher func(fn func())

// Controller owns the state of one directory page.
type Controller struct {
	engine    *filter.Engine
	presenter *presenter.Presenter
	maps      *mapsync.Adapter
	source    ports.SiteSource
	dispatch  Dispatcher
	logger    *slog.Logger

	generation uint64
	cancel     context.CancelFunc
	stale      int

	onStale   func()
	onDropped func(n int)
	onSettled func(err error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithMap attaches a map adapter; its markers follow the result set.
func WithMap(a *mapsync.Adapter) Option {
	return func(c *Controller) { c.maps = a }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithPageSize sets the number of cards per page.
func WithPageSize(n int) Option {
	return func(c *Controller) { c.presenter = presenter.New(n) }
}

// WithStaleHook is called for every discarded completion.
func WithStaleHook(fn func()) Option {
	return func(c *Controller) { c.onStale = fn }
}

// WithDroppedHook is called with the number of malformed records dropped by a load.
func WithDroppedHook(fn func(n int)) Option {
	return func(c *Controller) { c.onDropped = fn }
}

// WithSettledHook is called after a current completion has been applied, with
// the fetch error if any.
func WithSettledHook(fn func(err error)) Option {
	return func(c *Controller) { c.onSettled = fn }
}

// New creates a controller for the given page profile.
func New(profile filter.Profile, source ports.SiteSource, dispatch Dispatcher, opts ...Option) *Controller {
	c := &Controller{
		source:    source,
		dispatch:  dispatch,
		logger:    slog.Default(),
		presenter: presenter.New(presenter.DefaultPageSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.engine = filter.NewEngine(profile, filter.WithLogger(c.logger))
	c.engine.OnResultSetChanged(func(result []domain.Site) {
		c.presenter.SetSaint(c.engine.State().Get(domain.FacetSaint))
		c.presenter.Show(result)
	})
	if c.maps != nil {
		c.maps.Attach(c.engine)
	}
	return c
}

// Refresh issues a new fetch and returns its generation. Any fetch still in
// flight is superseded; its context is cancelled and its result, if it still
// arrives, is discarded.
func (c *Controller) Refresh(ctx context.Context, hints domain.FilterState) uint64 {
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.presenter.Begin()

	hints = hints.Clone()
	go func() {
		sites, err := c.fetch(fetchCtx, hints)
		c.dispatch(func() {
			if err := c.complete(gen, sites, err); errors.Is(err, domain.ErrStaleResponse) {
				c.logger.Debug("discarding stale fetch", "generation", gen)
			}
		})
	}()
	return gen
}

// fetch calls the source. A panic in the source becomes a FetchError so nothing
// escapes the fetch goroutine.
func (c *Controller) fetch(ctx context.Context, hints domain.FilterState) (sites []domain.Site, err error) {
	defer func() {
		if r := recover(); r != nil {
			sites, err = nil, &domain.FetchError{Op: "sites", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return c.source.FetchSites(ctx, hints)
}

// complete applies a fetch result if gen is still the latest request.
func (c *Controller) complete(gen uint64, sites []domain.Site, err error) error {
	if gen != c.generation {
		c.stale++
		if c.onStale != nil {
			c.onStale()
		}
		return domain.ErrStaleResponse
	}
	c.cancel()
	c.cancel = nil

	if err != nil {
		if !domain.IsFetchError(err) {
			err = &domain.FetchError{Op: "sites", Err: err}
		}
		c.logger.Warn("site fetch failed", "generation", gen, "error", err)
		c.presenter.Fail(err)
		if c.onSettled != nil {
			c.onSettled(err)
		}
		return err
	}

	dropped := c.engine.Load(sites)
	if dropped > 0 && c.onDropped != nil {
		c.onDropped(dropped)
	}
	c.presenter.Settle()
	if c.onSettled != nil {
		c.onSettled(nil)
	}
	return nil
}

// Close cancels any fetch in flight. A completion that still arrives is stale.
func (c *Controller) Close() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
}

// SetFacet changes one facet locally. No fetch is issued.
func (c *Controller) SetFacet(name domain.FacetName, value string) error {
	if err := c.engine.SetFacet(name, value); err != nil {
		return fmt.Errorf("set facet: %w", err)
	}
	return nil
}

// ClearAll unsets every facet.
func (c *Controller) ClearAll() { c.engine.ClearAll() }

// SetSort changes the card order and keeps the cursor.
func (c *Controller) SetSort(k presenter.SortKey) { c.presenter.SetSort(k) }

// SetView changes the card layout and keeps the cursor.
func (c *Controller) SetView(v presenter.ViewMode) { c.presenter.SetView(v) }

// SetPage moves the cursor.
func (c *Controller) SetPage(n int) { c.presenter.SetPage(n) }

// Focus centres the map on the marker at (lat, lng).
func (c *Controller) Focus(lat, lng, tolerance float64) bool {
	if c.maps == nil {
		return false
	}
	return c.maps.Focus(lat, lng, tolerance)
}

// FitToMarkers refits the map viewport.
func (c *Controller) FitToMarkers() {
	if c.maps != nil {
		c.maps.FitToMarkers()
	}
}

func (c *Controller) Engine() *filter.Engine          { return c.engine }
func (c *Controller) Presenter() *presenter.Presenter { return c.presenter }
func (c *Controller) Generation() uint64              { return c.generation }

// StaleDiscarded returns how many completions have been discarded.
func (c *Controller) StaleDiscarded() int { return c.stale }

// Page renders the page under the cursor.
func (c *Controller) Page() presenter.Page { return c.presenter.Current() }

// Status returns the display state.
func (c *Controller) Status() presenter.Status { return c.presenter.Status() }
