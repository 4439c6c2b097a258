// Package presenter turns a filter result into pages of cards and tracks the
// display state of a results pane.
package presenter

import (
	"fmt"

	"github.com/samirrijal/sacredsites/internal/core/domain"
	"github.com/samirrijal/sacredsites/internal/pkg/textnorm"
)

const (
	// DefaultPageSize is the number of cards per page.
	DefaultPageSize = 12
	// CardExcerptLength is the card excerpt length in runes.
	CardExcerptLength = 150
)

// ViewMode selects the card layout.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// ParseViewMode validates s. An empty string means grid.
func ParseViewMode(s string) (ViewMode, error) {
	switch v := ViewMode(s); v {
	case "":
		return ViewGrid, nil
	case ViewGrid, ViewList:
		return v, nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

// Request selects one page of a result.
type Request struct {
	Page     int
	PageSize int
	Sort     SortKey
	View     ViewMode
	// Saint is the active saint facet, used by relevance sorting.
	Saint string
}

// Card is the view model of one result.
type Card struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Link          string           `json:"link"`
	Thumbnail     string           `json:"thumbnail,omitempty"`
	Category      domain.Category  `json:"category"`
	CategoryLabel string           `json:"category_label"`
	County        string           `json:"county,omitempty"`
	Saints        []string         `json:"saints,omitempty"`
	Centuries     []string         `json:"centuries,omitempty"`
	Excerpt       string           `json:"excerpt,omitempty"`
	Location      *domain.GeoPoint `json:"location,omitempty"`
}

// Page is one rendered page.
type Page struct {
	Items     []Card   `json:"items"`
	Page      int      `json:"page"`
	PageSize  int      `json:"page_size"`
	PageCount int      `json:"page_count"`
	Total     int      `json:"total"`
	Sort      SortKey  `json:"sort"`
	View      ViewMode `json:"view"`
}

// Render sorts result and slices out the requested page. It does not modify
// result. A page past the end yields no items.
func Render(result []domain.Site, req Request) Page {
	size := req.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	page := max(req.Page, 0)
	if req.Sort == "" {
		req.Sort = SortRelevance
	}
	if req.View == "" {
		req.View = ViewGrid
	}

	total := len(result)
	out := Page{
		Items:     []Card{},
		Page:      page,
		PageSize:  size,
		PageCount: (total + size - 1) / size,
		Total:     total,
		Sort:      req.Sort,
		View:      req.View,
	}

	start := page * size
	if start >= total {
		return out
	}
	end := min(start+size, total)
	sorted := SortSites(result, req.Sort, req.Saint)
	for i := start; i < end; i++ {
		out.Items = append(out.Items, NewCard(&sorted[i]))
	}
	return out
}

// NewCard maps a site to its card.
func NewCard(s *domain.Site) Card {
	return Card{
		ID:            s.ID,
		Title:         s.Title,
		Link:          s.Permalink,
		Thumbnail:     s.Thumbnail,
		Category:      s.Category,
		CategoryLabel: s.Category.Label(),
		County:        s.PrimaryCounty(),
		Saints:        s.Saints,
		Centuries:     s.Centuries,
		Excerpt:       textnorm.Truncate(s.Excerpt, CardExcerptLength),
		Location:      s.Location,
	}
}
