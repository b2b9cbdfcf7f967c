// Package query holds the listing page state: committed filters, the buffered
// price draft, pagination, sort and the request bookkeeping that keeps a slow
// search response from overwriting a newer one.
package query

import (
	"errors"
	"strings"
	"sync"

	"storefront/internal/domain"
)

var (
	ErrPriceInvalid    = errors.New("query: price range has outstanding errors")
	ErrPageOutOfRange  = errors.New("query: page out of range")
	ErrLimitNotOffered = errors.New("query: page size not offered")
)

// Phase is the listing lifecycle.
type Phase int

const (
	// PhaseIdle: committed filters match the URL and the displayed results.
	PhaseIdle Phase = iota
	// PhaseEditing: the price draft differs from what is committed.
	PhaseEditing
	// PhaseApplying: a search for the committed filters is in flight.
	PhaseApplying
)

func (p Phase) String() string {
	switch p {
	case PhaseEditing:
		return "editing"
	case PhaseApplying:
		return "applying"
	default:
		return "idle"
	}
}

// State is the listing state of one browsing session. It is safe for use by
// concurrent goroutines.
type State struct {
	mu sync.Mutex

	filters domain.ProductFilters
	page    Pagination
	draft   PriceDraft
	errs    FieldErrors
	phase   Phase

	token   uint64
	results *domain.SearchPage
	lastErr error
}

// New returns a state with no filters on page 1 of DefaultLimit items.
func New() *State {
	return &State{
		page: Pagination{Page: 1, Limit: DefaultLimit},
		errs: FieldErrors{},
	}
}

// Sort returns the committed price sort.
func (s *State) Sort() domain.SortOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.SortBy
}

// Phase returns the lifecycle phase.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Filters returns a copy of the committed filters.
func (s *State) Filters() domain.ProductFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

// SetSearch commits the free-text search and goes back to page 1.
func (s *State) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Search = strings.TrimSpace(text)
	s.page.Page = 1
}

// SetRating commits the minimum rating; nil clears it.
func (s *State) SetRating(r *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Rating = copyFloat(r)
	s.page.Page = 1
}

// SetInStock commits the stock filter; nil clears it.
func (s *State) SetInStock(b *bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b != nil {
		v := *b
		b = &v
	}
	s.filters.InStock = b
	s.page.Page = 1
}

func (s *State) ToggleCategory(v string) { s.toggle(&s.filters.Category, v) }
func (s *State) ToggleColor(v string)    { s.toggle(&s.filters.Color, v) }
func (s *State) ToggleSize(v string)     { s.toggle(&s.filters.Size, v) }
func (s *State) ToggleUnit(v string)     { s.toggle(&s.filters.Unit, v) }

// toggle adds v to the facet or removes it when present. Any facet change
// lands on page 1.
func (s *State) toggle(facet *[]string, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	*facet = toggled(*facet, v)
	s.page.Page = 1
}

func toggled(values []string, v string) []string {
	for i, have := range values {
		if have == v {
			out := make([]string, 0, len(values)-1)
			out = append(out, values[:i]...)
			return append(out, values[i+1:]...)
		}
	}
	out := make([]string, 0, len(values)+1)
	out = append(out, values...)
	return append(out, v)
}

// ClearFilters drops every filter, the price draft and its errors. Sort and
// page size are kept.
func (s *State) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	sort := s.filters.SortBy
	s.filters = domain.ProductFilters{SortBy: sort}
	s.draft = PriceDraft{}
	s.errs = FieldErrors{}
	s.page.Page = 1
	if s.phase == PhaseEditing {
		s.phase = PhaseIdle
	}
}

// CycleSort steps the price sort none -> ascending -> descending -> none and
// goes back to page 1.
func (s *State) CycleSort() domain.SortOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.filters.SortBy {
	case domain.SortNone:
		s.filters.SortBy = domain.SortPriceAsc
	case domain.SortPriceAsc:
		s.filters.SortBy = domain.SortPriceDesc
	default:
		s.filters.SortBy = domain.SortNone
	}
	s.page.Page = 1
	return s.filters.SortBy
}

// SearchRequest builds the body of the search call for the committed state.
// Units, rating and stock have no counterpart on the search service.
func (s *State) SearchRequest() domain.SearchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.filters.Clone()
	req := domain.SearchRequest{
		PageNumber: s.page.Page,
		PageSize:   s.page.Limit,
		PriceMin:   f.PriceMin,
		PriceMax:   f.PriceMax,
		Categories: f.Category,
		Colors:     f.Color,
		Sizes:      f.Size,
		SearchText: f.Search,
	}
	switch f.SortBy {
	case domain.SortPriceAsc:
		req.OrderBy = "precio-asc"
	case domain.SortPriceDesc:
		req.OrderBy = "precio-desc"
	}
	return req
}

// Begin marks a new search for the committed state and returns its token.
// Only the most recent token may complete.
func (s *State) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token++
	s.phase = PhaseApplying
	return s.token
}

// Complete stores the results of the search identified by token. It reports
// false and changes nothing when a newer search has started since.
func (s *State) Complete(token uint64, page domain.SearchPage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		return false
	}
	s.results = &page
	s.lastErr = nil
	s.page.total = page.TotalPages
	if page.CurrentPage > 0 {
		s.page.Page = page.CurrentPage
	}
	s.settle()
	return true
}

// Fail records a failed search. Results already on display are kept so the
// view can offer a retry over them.
func (s *State) Fail(token uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		return false
	}
	s.lastErr = err
	s.settle()
	return true
}

func (s *State) settle() {
	if s.draft.differs(s.filters) || len(s.errs) > 0 {
		s.phase = PhaseEditing
		return
	}
	s.phase = PhaseIdle
}

// Results returns the last successful page, nil before the first one.
func (s *State) Results() *domain.SearchPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.results == nil {
		return nil
	}
	out := *s.results
	out.Items = append([]domain.ProductSummary(nil), s.results.Items...)
	return &out
}

// Err is the error of the last search, cleared by the next success.
func (s *State) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Empty reports a successful search that matched nothing. It is never true
// while the last search failed.
func (s *State) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr == nil && s.results != nil && len(s.results.Items) == 0
}
