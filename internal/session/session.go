// Package session runs one interactive directory page over a message channel:
// client actions in, map commands and result pages out.
//
// A Session owns its controller, map surface and timers on a single goroutine
// (Run). Fetch completions, debounce expiry and change notifications are all
// funnelled back onto that goroutine.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/sacredsites/internal/adapters/mapcmd"
	"github.com/samirrijal/sacredsites/internal/core/directory"
	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/core/filter"
	"github.com/samirrijal/sacredsites/internal/core/mapsync"
	"github.com/samirrijal/sacredsites/internal/core/ports"
	"github.com/samirrijal/sacredsites/internal/core/presenter"
	"github.com/samirrijal/sacredsites/internal/pkg/metrics"
)

// Config tunes a session.
type Config struct {
	PageSize         int
	ExcerptLength    int
	FocusTolerance   float64
	SingleMarkerZoom int
	FocusZoom        int
	// Debounce delays saint_query before it is applied. Zero applies it at once.
	Debounce time.Duration
}

// Sender delivers a message to the client.
type Sender func(Message) error

// Session is one connected directory page.
type Session struct {
	id      string
	profile filter.Profile
	cfg     Config
	source  ports.SiteSource
	changes ports.EventSubscriber
	send    Sender
	logger  *slog.Logger

	ctrl    *directory.Controller
	surface *mapcmd.Surface
	events  chan func()
	done    chan struct{}
	outbox  []Message

	debounce     *time.Timer
	debounceC    <-chan time.Time
	pendingSaint string
}

// New creates a session. changes may be nil.
func New(profile filter.Profile, cfg Config, source ports.SiteSource, changes ports.EventSubscriber, send Sender, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		id:      uuid.NewString(),
		profile: profile,
		cfg:     cfg,
		source:  source,
		changes: changes,
		send:    send,
		events:  make(chan func(), 16),
		done:    make(chan struct{}),
		surface: mapcmd.New(),
	}
	s.logger = logger.With("session", s.id, "profile", profile.Name)

	adapter := mapsync.New(s.surface,
		mapsync.WithExcerptLength(cfg.ExcerptLength),
		mapsync.WithSingleMarkerZoom(orDefault(cfg.SingleMarkerZoom, mapsync.DefaultSingleMarkerZoom)),
		mapsync.WithFocusZoom(orDefault(cfg.FocusZoom, mapsync.DefaultFocusZoom)),
		mapsync.WithDetailHandler(func(site domain.Site) {
			card := presenter.NewCard(&site)
			s.outbox = append(s.outbox, Message{Type: TypeDetail, Card: &card})
		}),
	)
	s.ctrl = directory.New(profile, source, s.dispatch,
		directory.WithMap(adapter),
		directory.WithPageSize(cfg.PageSize),
		directory.WithLogger(s.logger),
		directory.WithStaleHook(func() {
			metrics.StaleResponsesDiscarded.WithLabelValues(profile.Name).Inc()
		}),
		directory.WithDroppedHook(func(n int) {
			metrics.MalformedSitesDropped.WithLabelValues("load").Add(float64(n))
		}),
	)
	s.ctrl.Engine().OnResultSetChanged(func([]domain.Site) {
		metrics.FilterRecomputes.WithLabelValues(profile.Name).Inc()
	})
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Run serves the session until ctx is done or inbound is closed. It issues the
// initial fetch itself.
func (s *Session) Run(ctx context.Context, inbound <-chan []byte) error {
	metrics.ActiveMapSessions.Inc()
	defer metrics.ActiveMapSessions.Dec()
	defer close(s.done)
	defer s.ctrl.Close()
	defer s.stopDebounce()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.changes != nil {
		err := s.changes.SubscribeSitesChanged(ctx, func(_ context.Context, ev *domain.SitesChangedEvent) error {
			s.dispatch(func() {
				s.logger.Info("site collection changed, refreshing", "source", ev.Source)
				s.ctrl.Refresh(ctx, nil)
			})
			return nil
		})
		if err != nil {
			s.logger.Warn("change subscription failed", "error", err)
		}
	}

	s.ctrl.Refresh(ctx, nil)
	if err := s.flush(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-inbound:
			if !ok {
				return nil
			}
			s.handle(ctx, raw)
		case fn := <-s.events:
			fn()
		case <-s.debounceC:
			s.debounceC = nil
			s.applySaint(s.pendingSaint)
		}
		if err := s.flush(); err != nil {
			return err
		}
	}
}

// dispatch queues fn for the session goroutine. After Run returns it drops fn.
func (s *Session) dispatch(fn func()) {
	select {
	case s.events <- fn:
	case <-s.done:
	}
}

func (s *Session) handle(ctx context.Context, raw []byte) {
	var a Action
	if err := json.Unmarshal(raw, &a); err != nil {
		s.fail("bad_request", "invalid JSON")
		return
	}

	switch a.Action {
	case ActionSetFacet:
		name, ok := domain.ParseFacetName(a.Facet)
		if !ok {
			s.fail("unknown_facet", fmt.Sprintf("unknown facet %q", a.Facet))
			return
		}
		if name == domain.FacetSaint {
			// An explicit choice supersedes typing still being debounced.
			s.stopDebounce()
		}
		if err := s.ctrl.SetFacet(name, a.Value); err != nil {
			s.failErr(err)
		}
	case ActionClearAll:
		s.stopDebounce()
		s.ctrl.ClearAll()
	case ActionSaintQuery:
		s.querySaint(a.Value)
	case ActionSetSort:
		k, err := presenter.ParseSortKey(a.Sort)
		if err != nil {
			s.fail("bad_request", err.Error())
			return
		}
		s.ctrl.SetSort(k)
	case ActionSetView:
		v, err := presenter.ParseViewMode(a.View)
		if err != nil {
			s.fail("bad_request", err.Error())
			return
		}
		s.ctrl.SetView(v)
	case ActionSetPage:
		s.ctrl.SetPage(a.Page)
	case ActionFocus:
		s.ctrl.Focus(a.Lat, a.Lng, s.cfg.FocusTolerance)
	case ActionFit:
		s.ctrl.FitToMarkers()
	case ActionClick:
		s.surface.Click(a.Marker)
	case ActionRefresh, ActionRetry:
		s.ctrl.Refresh(ctx, nil)
	default:
		s.fail("bad_request", fmt.Sprintf("unknown action %q", a.Action))
	}
}

func (s *Session) querySaint(value string) {
	if s.cfg.Debounce <= 0 {
		s.applySaint(value)
		return
	}
	s.pendingSaint = value
	s.stopDebounce()
	s.debounce = time.NewTimer(s.cfg.Debounce)
	s.debounceC = s.debounce.C
}

func (s *Session) applySaint(value string) {
	if err := s.ctrl.SetFacet(domain.FacetSaint, value); err != nil {
		s.failErr(err)
	}
}

func (s *Session) stopDebounce() {
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	s.debounceC = nil
}

func (s *Session) fail(code, msg string) {
	s.outbox = append(s.outbox, Message{Type: TypeError, Code: code, Error: msg})
}

func (s *Session) failErr(err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownFacet):
		s.fail("unknown_facet", err.Error())
	case errors.Is(err, domain.ErrFacetDisabled):
		s.fail("facet_disabled", err.Error())
	default:
		s.fail("internal", err.Error())
	}
}

// flush sends queued map commands, detail and error messages, then the current
// page and facet state.
func (s *Session) flush() error {
	if cmds := s.surface.Drain(); len(cmds) > 0 {
		creates := 0
		for _, c := range cmds {
			if c.Op == mapcmd.OpMarkerCreate {
				creates++
			}
		}
		metrics.MarkersSynced.WithLabelValues(s.profile.Name).Add(float64(creates))
		if err := s.send(Message{Type: TypeMap, Commands: cmds}); err != nil {
			return err
		}
	}
	out := s.outbox
	s.outbox = nil
	for _, m := range out {
		if err := s.send(m); err != nil {
			return err
		}
	}
	page := s.ctrl.Page()
	status := s.ctrl.Status()
	res := Message{Type: TypeResults, Page: &page, Status: status.String()}
	if status == presenter.StatusError {
		res.Error = s.ctrl.Presenter().Err().Error()
		res.Retry = true
	}
	if err := s.send(res); err != nil {
		return err
	}
	return s.send(Message{Type: TypeFacets, State: s.ctrl.Engine().State()})
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
