package variant

import (
	"github.com/shopspring/decimal"

	"storefront/internal/catalog"
	"storefront/internal/domain"
)

// Selector is the per-page selection state of one product. Create a fresh one
// for every product view and drop it on navigation away.
type Selector struct {
	resolver *Resolver
	variants []domain.Variant
	sel      domain.Selection
}

// NewSelector starts with nothing selected.
func NewSelector(r *Resolver, variants []domain.Variant) *Selector {
	return &Selector{resolver: r, variants: variants}
}

// Selection returns the current choice.
func (s *Selector) Selection() domain.Selection { return s.sel }

// SelectPrimary chooses a color. Picking a different color always clears the
// size, even when the old size is also offered for the new color; re-picking
// the current color changes nothing.
func (s *Selector) SelectPrimary(colorID int64) error {
	if colorID == s.sel.ColorValueID {
		return nil
	}
	if _, ok := s.resolver.AvailableValuesFor(catalog.RolePrimary, s.variants)[colorID]; !ok {
		return ErrColorUnavailable
	}
	s.sel = domain.Selection{ColorValueID: colorID}
	return nil
}

// SelectSecondary chooses a size among those offered for the current color.
func (s *Selector) SelectSecondary(sizeID int64) error {
	if s.sel.ColorValueID == 0 {
		return ErrNoPrimarySelected
	}
	if _, ok := s.AvailableSizes()[sizeID]; !ok {
		return ErrSizeUnavailable
	}
	s.sel.SizeValueID = sizeID
	return nil
}

// Reset clears color and size.
func (s *Selector) Reset() { s.sel = domain.Selection{} }

// AvailableColors are the colors some variant of this product carries.
func (s *Selector) AvailableColors() map[int64]struct{} {
	return s.resolver.AvailableValuesFor(catalog.RolePrimary, s.variants)
}

// AvailableSizes are the sizes offered for the current color; empty without one.
func (s *Selector) AvailableSizes() map[int64]struct{} {
	return s.resolver.AvailableSecondaryValues(s.sel.ColorValueID, s.variants)
}

// Resolved is the variant matching the full selection, or nil.
func (s *Selector) Resolved() *domain.Variant {
	return s.resolver.Resolve(s.sel, s.variants)
}

// Price is the price to display for the current selection.
func (s *Selector) Price() decimal.Decimal {
	return s.resolver.DisplayPrice(s.sel, s.variants)
}

// CanPurchase reports whether the selection identifies a variant that can be
// added to the cart. A variant that reports zero stock cannot.
func (s *Selector) CanPurchase() bool {
	v := s.Resolved()
	if v == nil {
		return false
	}
	return v.Stock == nil || *v.Stock > 0
}
