package presenter

import "github.com/samirrijal/sacredsites/internal/core/domain"

// Status is the display state of a results pane.
type Status int

const (
	StatusLoading Status = iota
	StatusPopulated
	StatusEmpty
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusPopulated:
		return "populated"
	case StatusEmpty:
		return "empty"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Presenter tracks what a results pane shows: the current result, the cursor,
// the sort key and view mode, and the loading/empty/error state.
//
// A fetch moves it to Loading (Begin) and back out (Settle or Fail). Result
// changes caused only by facet edits arrive through Show and never pass through
// Loading. Not safe for concurrent use.
type Presenter struct {
	status   Status
	err      error
	pending  bool
	result   []domain.Site
	page     int
	pageSize int
	sort     SortKey
	view     ViewMode
	saint    string
}

// New creates a presenter in the Loading state.
func New(pageSize int) *Presenter {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Presenter{
		status:   StatusLoading,
		pending:  true,
		pageSize: pageSize,
		sort:     SortRelevance,
		view:     ViewGrid,
	}
}

// Begin marks a fetch in flight.
func (p *Presenter) Begin() {
	p.pending = true
	p.err = nil
	p.status = StatusLoading
}

// Show replaces the result and resets the cursor to the first page. While a
// fetch is pending the status stays Loading.
func (p *Presenter) Show(result []domain.Site) {
	p.result = result
	p.page = 0
	if !p.pending {
		p.status = derive(result)
	}
}

// Settle ends the pending fetch and derives Populated or Empty from the result.
func (p *Presenter) Settle() {
	p.pending = false
	p.err = nil
	p.status = derive(p.result)
}

// Fail ends the pending fetch in the Error state. The previous result is kept
// so a retry has something to show behind the error.
func (p *Presenter) Fail(err error) {
	p.pending = false
	p.err = err
	p.status = StatusError
}

// SetSaint records the active saint facet for relevance sorting.
func (p *Presenter) SetSaint(saint string) { p.saint = saint }

// SetSort changes the order. The cursor is kept.
func (p *Presenter) SetSort(k SortKey) { p.sort = k }

// SetView changes the layout. The cursor is kept.
func (p *Presenter) SetView(v ViewMode) { p.view = v }

// SetPage moves the cursor, clamped to the existing pages.
func (p *Presenter) SetPage(n int) {
	last := max(p.PageCount()-1, 0)
	p.page = min(max(n, 0), last)
}

// PageCount returns the number of pages of the current result.
func (p *Presenter) PageCount() int {
	return (len(p.result) + p.pageSize - 1) / p.pageSize
}

func (p *Presenter) Status() Status     { return p.status }
func (p *Presenter) Err() error         { return p.err }
func (p *Presenter) PageIndex() int     { return p.page }
func (p *Presenter) SortKey() SortKey   { return p.sort }
func (p *Presenter) ViewMode() ViewMode { return p.view }

// Current renders the page under the cursor.
func (p *Presenter) Current() Page {
	return Render(p.result, Request{
		Page:     p.page,
		PageSize: p.pageSize,
		Sort:     p.sort,
		View:     p.view,
		Saint:    p.saint,
	})
}

func derive(result []domain.Site) Status {
	if len(result) == 0 {
		return StatusEmpty
	}
	return StatusPopulated
}
