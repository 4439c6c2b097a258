package session

import (
	"github.com/samirrijal/sacredsites/internal/adapters/mapcmd"
	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/core/presenter"
)

// Client actions.
const (
	ActionSetFacet   = "set_facet"
	ActionClearAll   = "clear_all"
	ActionSaintQuery = "saint_query"
	ActionSetSort    = "set_sort"
	ActionSetView    = "set_view"
	ActionSetPage    = "set_page"
	ActionFocus      = "focus"
	ActionFit        = "fit"
	ActionClick      = "marker_click"
	ActionRefresh    = "refresh"
	ActionRetry      = "retry"
)

// Server message types.
const (
	TypeMap     = "map"
	TypeResults = "results"
	TypeFacets  = "facets"
	TypeDetail  = "detail"
	TypeError   = "error"
)

// Action is a message from the client.
type Action struct {
	Action string  `json:"action"`
	Facet  string  `json:"facet,omitempty"`
	Value  string  `json:"value,omitempty"`
	Sort   string  `json:"sort,omitempty"`
	View   string  `json:"view,omitempty"`
	Page   int     `json:"page,omitempty"`
	Lat    float64 `json:"lat,omitempty"`
	Lng    float64 `json:"lng,omitempty"`
	Marker string  `json:"marker,omitempty"`
}

// Message is sent to the client.
type Message struct {
	Type     string             `json:"type"`
	Commands []mapcmd.Command   `json:"commands,omitempty"`
	Page     *presenter.Page    `json:"page,omitempty"`
	Status   string             `json:"status,omitempty"`
	State    domain.FilterState `json:"state,omitempty"`
	Card     *presenter.Card    `json:"card,omitempty"`
	Code     string             `json:"code,omitempty"`
	Error    string             `json:"error,omitempty"`
	Retry    bool               `json:"retry,omitempty"`
}
