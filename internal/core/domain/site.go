package domain

import (
	"fmt"
	"time"
)

// Category classifies a site. The set is fixed by the content model of the directory.
type Category string

const (
	CategoryMonastic      Category = "monastic-site"
	CategoryPilgrimage    Category = "pilgrimage-route"
	CategoryChristianSite Category = "christian-site"
	CategoryHolyWell      Category = "holy-well"
	CategoryHighCross     Category = "high-cross"
	CategoryRoundTower    Category = "round-tower"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryMonastic,
	CategoryPilgrimage,
	CategoryChristianSite,
	CategoryHolyWell,
	CategoryHighCross,
	CategoryRoundTower,
}

var categoryLabels = map[Category]string{
	CategoryMonastic:      "Monastic Site",
	CategoryPilgrimage:    "Pilgrimage Route",
	CategoryChristianSite: "Christian Site",
	CategoryHolyWell:      "Holy Well",
	CategoryHighCross:     "High Cross",
	CategoryRoundTower:    "Round Tower",
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human readable name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Site is a heritage site listed in the directory.
type Site struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Category   Category  `json:"category"`
	Counties   []string  `json:"counties,omitempty"`
	Saints     []string  `json:"saints,omitempty"`
	Centuries  []string  `json:"centuries,omitempty"`
	Location   *GeoPoint `json:"location,omitempty"`
	Permalink  string    `json:"permalink"`
	Excerpt    string    `json:"excerpt,omitempty"`
	Thumbnail  string    `json:"thumbnail,omitempty"`
	Provenance string    `json:"provenance,omitempty"`
	Distance   *float64  `json:"distance,omitempty"` // computed field
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// PrimaryCounty returns the first county, or "" when the site has none.
func (s *Site) PrimaryCounty() string {
	if len(s.Counties) == 0 {
		return ""
	}
	return s.Counties[0]
}

// HasLocation reports whether the site can be placed on a map.
func (s *Site) HasLocation() bool {
	return s.Location != nil
}

// Validate checks the fields every consumer relies on.
func (s *Site) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedSite)
	}
	if s.Title == "" {
		return fmt.Errorf("%w: site %s has no title", ErrMalformedSite, s.ID)
	}
	if !s.Category.Valid() {
		return fmt.Errorf("%w: site %s has unknown category %q", ErrMalformedSite, s.ID, s.Category)
	}
	if s.Location != nil {
		if err := s.Location.Validate(); err != nil {
			return fmt.Errorf("%w: site %s: %v", ErrMalformedSite, s.ID, err)
		}
	}
	return nil
}

// FacetOption is one selectable value of a facet control.
type FacetOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SitesChangedEvent is published after the site collection has been modified.
type SitesChangedEvent struct {
	Source    string    `json:"source"`
	Upserted  int       `json:"upserted"`
	Dropped   int       `json:"dropped"`
	ChangedAt time.Time `json:"changed_at"`
}
