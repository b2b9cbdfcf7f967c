package query

import "slices"

// PageSizes are the page sizes a shopper can pick.
var PageSizes = []int{3, 9, 15, 24}

const (
	DefaultLimit  = 9
	DefaultWindow = 5
)

// Pagination is the committed page position. The total is learned from the
// last successful search.
type Pagination struct {
	Page  int
	Limit int
	total int
}

// TotalPages is the page count of the last successful search, 0 before one.
func (p Pagination) TotalPages() int { return p.total }

func (s *State) Pagination() Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// SetLimit switches the page size and goes back to page 1.
func (s *State) SetLimit(n int) error {
	if !slices.Contains(PageSizes, n) {
		return ErrLimitNotOffered
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page.Limit = n
	s.page.Page = 1
	return nil
}

// SetPage jumps to page n, which must lie within the known page count.
func (s *State) SetPage(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || (s.page.total > 0 && n > s.page.total) {
		return ErrPageOutOfRange
	}
	s.page.Page = n
	return nil
}

func (s *State) HasPrev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page.Page > 1
}

func (s *State) HasNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page.Page < s.page.total
}

// Prev moves one page back; it is a no-op on page 1.
func (s *State) Prev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page.Page <= 1 {
		return false
	}
	s.page.Page--
	return true
}

// Next moves one page forward; it is a no-op on the last page.
func (s *State) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page.Page >= s.page.total {
		return false
	}
	s.page.Page++
	return true
}

// PageWindow returns at most size consecutive page numbers around the
// current page, pinned to the first and last pages near the edges.
func (s *State) PageWindow(size int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pageWindow(s.page.Page, s.page.total, size)
}

func pageWindow(current, total, size int) []int {
	if total < 1 || size < 1 {
		return nil
	}
	n := min(size, total)
	start := current - size/2
	start = max(start, 1)
	start = min(start, total-n+1)
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}
