// Package variant maps a color/size selection onto a product's concrete variants.
package variant

import (
	"errors"

	"github.com/shopspring/decimal"

	"storefront/internal/catalog"
	"storefront/internal/domain"
)

var (
	ErrNoPrimarySelected = errors.New("variant: choose a color before a size")
	ErrSizeUnavailable   = errors.New("variant: size not offered for the chosen color")
	ErrColorUnavailable  = errors.New("variant: color not offered for this product")
)

// Resolver answers availability and resolution questions against the attribute
// catalog. Every method is a pure function of its arguments and the loaded catalog.
type Resolver struct {
	catalog *catalog.Catalog
}

// NewResolver creates a Resolver reading from c.
func NewResolver(c *catalog.Catalog) *Resolver {
	return &Resolver{catalog: c}
}

// AvailableValuesFor returns the value ids of the role's attribute that at least
// one variant actually uses. A globally known value that no variant uses is never
// returned. Empty when the catalog is not loaded or lacks the attribute.
func (r *Resolver) AvailableValuesFor(role catalog.Role, variants []domain.Variant) map[int64]struct{} {
	known := r.catalog.ValueIDs(role)
	out := make(map[int64]struct{})
	if len(known) == 0 {
		return out
	}
	for _, v := range variants {
		for _, id := range v.AttributeValues {
			if _, ok := known[id]; ok {
				out[id] = struct{}{}
			}
		}
	}
	return out
}

// AvailableSecondaryValues returns the sizes offered by variants carrying primaryID.
func (r *Resolver) AvailableSecondaryValues(primaryID int64, variants []domain.Variant) map[int64]struct{} {
	out := make(map[int64]struct{})
	if primaryID == 0 {
		return out
	}
	if _, ok := r.catalog.ValueIDs(catalog.RolePrimary)[primaryID]; !ok {
		return out
	}
	sizes := r.catalog.ValueIDs(catalog.RoleSecondary)
	if len(sizes) == 0 {
		return out
	}
	for _, v := range variants {
		if !v.HasValue(primaryID) {
			continue
		}
		for _, id := range v.AttributeValues {
			if _, ok := sizes[id]; ok {
				out[id] = struct{}{}
			}
		}
	}
	return out
}

// Resolve returns the variant whose color and size links set-equal {color, size}.
// Links to other attributes (a unit of measure, say) do not take part in the
// match. A partial selection, an unloaded catalog or a combination no variant
// carries yields nil, which callers treat as "cannot add to cart yet".
func (r *Resolver) Resolve(sel domain.Selection, variants []domain.Variant) *domain.Variant {
	if !sel.Complete() {
		return nil
	}
	colors := r.catalog.ValueIDs(catalog.RolePrimary)
	sizes := r.catalog.ValueIDs(catalog.RoleSecondary)
	if len(colors) == 0 || len(sizes) == 0 {
		return nil
	}
	for i := range variants {
		if axisEqual(variants[i].AttributeValues, colors, sel.ColorValueID) &&
			axisEqual(variants[i].AttributeValues, sizes, sel.SizeValueID) {
			return &variants[i]
		}
	}
	return nil
}

// axisEqual reports whether the links falling inside axis are exactly {want}.
func axisEqual(links []int64, axis map[int64]struct{}, want int64) bool {
	found := false
	for _, id := range links {
		if _, ok := axis[id]; !ok {
			continue
		}
		if id != want {
			return false
		}
		found = true
	}
	return found
}

// DisplayPrice is the price shown next to the selectors: the resolved variant's
// price, else the cheapest variant of the chosen color, else the product minimum.
func (r *Resolver) DisplayPrice(sel domain.Selection, variants []domain.Variant) decimal.Decimal {
	if v := r.Resolve(sel, variants); v != nil {
		return v.Price
	}
	if sel.ColorValueID != 0 {
		var min *decimal.Decimal
		for i := range variants {
			if !variants[i].HasValue(sel.ColorValueID) {
				continue
			}
			if min == nil || variants[i].Price.LessThan(*min) {
				p := variants[i].Price
				min = &p
			}
		}
		if min != nil {
			return *min
		}
	}
	lo, _ := PriceRange(variants)
	return lo
}

// PriceRange returns the lowest and highest variant price; zero for no variants.
func PriceRange(variants []domain.Variant) (decimal.Decimal, decimal.Decimal) {
	if len(variants) == 0 {
		return decimal.Zero, decimal.Zero
	}
	lo, hi := variants[0].Price, variants[0].Price
	for _, v := range variants[1:] {
		lo = decimal.Min(lo, v.Price)
		hi = decimal.Max(hi, v.Price)
	}
	return lo, hi
}
