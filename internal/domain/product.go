package domain

import (
	"github.com/shopspring/decimal"
)

// AttributeValue is one selectable value of an attribute, e.g. id=28 -> "Negro" under "Color".
// Ids are unique across all attributes; display strings are not.
type AttributeValue struct {
	ID          int64  `json:"id"`
	AttributeID int64  `json:"attributeId"`
	Value       string `json:"value"`
}

// Attribute is a server-defined axis of variation (Color, Talla) or a filter facet (Género, Deporte).
type Attribute struct {
	ID     int64            `json:"id"`
	Name   string           `json:"name"`
	Values []AttributeValue `json:"values"`
}

// Variant is exactly one purchasable combination of attribute values for a product.
// Variants are immutable once fetched.
type Variant struct {
	ID              int64           `json:"id"`
	ProductID       int64           `json:"productId"`
	Price           decimal.Decimal `json:"price"`
	SKU             string          `json:"sku"`
	Stock           *int32          `json:"stock,omitempty"`
	Images          []string        `json:"images"`
	AttributeValues []int64         `json:"attributeValueIds"` // attribute links, by value id
}

// HasValue reports whether the variant is linked to the given attribute value.
func (v Variant) HasValue(valueID int64) bool {
	for _, id := range v.AttributeValues {
		if id == valueID {
			return true
		}
	}
	return false
}

// Product owns its variants; variants have no independent lifecycle.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BaseImages  []string  `json:"baseImages"`
	Variants    []Variant `json:"variants"`
	PromotionID *int64    `json:"promotionId,omitempty"`
}

// ProductSummary is one row of a listing page.
type ProductSummary struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	HasPromotion bool            `json:"hasPromotion"`
}

// SearchPage is one page of search results as reported by the search service.
type SearchPage struct {
	Items       []ProductSummary `json:"items"`
	TotalCount  int              `json:"totalCount"`
	CurrentPage int              `json:"currentPage"`
	PageSize    int              `json:"pageSize"`
	TotalPages  int              `json:"totalPages"`
}

// Selection is the ephemeral color/size choice on a product page. Zero means unset.
type Selection struct {
	ColorValueID int64 `json:"colorValueId,omitempty"`
	SizeValueID  int64 `json:"sizeValueId,omitempty"`
}

// Complete reports whether both color and size are chosen.
func (s Selection) Complete() bool {
	return s.ColorValueID != 0 && s.SizeValueID != 0
}

// Empty reports whether neither color nor size is chosen.
func (s Selection) Empty() bool {
	return s.ColorValueID == 0 && s.SizeValueID == 0
}

// ProductSuggestion is a product proposed while the shopper types.
type ProductSuggestion struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}
