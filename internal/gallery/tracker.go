package gallery

import (
	"storefront/internal/domain"
)

// Tracker holds the active image of one product page across renders.
type Tracker struct {
	selector *Selector
	product  domain.Product
	images   []string
	active   int
	last     domain.Selection
}

func NewTracker(s *Selector, p domain.Product) *Tracker {
	return &Tracker{selector: s, product: p, images: s.CollectImages(p)}
}

func (t *Tracker) Images() []string { return t.images }

func (t *Tracker) Active() int { return t.active }

// Sync recomputes the active image after a selection change. changed reports a
// move caused by the selection, which the view should scroll into sight.
// Re-syncing an unchanged selection keeps a manually clicked image.
func (t *Tracker) Sync(sel domain.Selection) (index int, changed bool) {
	if sel == t.last {
		return t.active, false
	}
	t.last = sel
	next := t.selector.ActiveIndex(t.images, sel, t.product.Variants, t.active)
	changed = next != t.active
	t.active = next
	return t.active, changed
}

// Click makes image i active by hand. Out-of-range clicks are ignored.
func (t *Tracker) Click(i int) bool {
	if i < 0 || i >= len(t.images) {
		return false
	}
	t.active = i
	return true
}
