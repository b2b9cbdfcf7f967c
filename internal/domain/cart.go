package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineKey identifies a cart line. VariantID is zero for products without variants.
type LineKey struct {
	ProductID int64
	VariantID int64
}

// CartLineItem is one line of the active cart. Quantity is always >= 1.
type CartLineItem struct {
	ProductID int64           `json:"productId"`
	VariantID int64           `json:"variantId,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int32           `json:"quantity"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

// Key returns the line identity.
func (li CartLineItem) Key() LineKey {
	return LineKey{ProductID: li.ProductID, VariantID: li.VariantID}
}

// Subtotal is unit price times quantity.
func (li CartLineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt32(li.Quantity))
}

// Cart owns its lines in insertion order.
type Cart struct {
	ID     int64          `json:"id"`
	UserID *int64         `json:"userId,omitempty"`
	Items  []CartLineItem `json:"items"`
}

// Clone returns a deep copy of c.
func (c Cart) Clone() Cart {
	out := c
	if c.UserID != nil {
		u := *c.UserID
		out.UserID = &u
	}
	if c.Items != nil {
		out.Items = make([]CartLineItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}

// Total sums every line subtotal.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, li := range c.Items {
		total = total.Add(li.Subtotal())
	}
	return total
}

// Find returns the index of the line with key k, or -1.
func (c Cart) Find(k LineKey) int {
	for i, li := range c.Items {
		if li.Key() == k {
			return i
		}
	}
	return -1
}

// ShippingMethod is the first checkout choice.
type ShippingMethod string

const (
	ShippingDelivery ShippingMethod = "delivery"
	ShippingPickup   ShippingMethod = "pickup"
)

// Address is a delivery address entered at checkout.
type Address struct {
	Line       string   `json:"line" validate:"required,max=255"`
	District   string   `json:"district" validate:"required,max=100"`
	Province   string   `json:"province" validate:"required,max=100"`
	PostalCode string   `json:"postalCode" validate:"omitempty,max=20"`
	Country    string   `json:"country" validate:"required,max=100"`
	Reference  string   `json:"reference,omitempty" validate:"omitempty,max=255"`
	Latitude   *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// Contact is the buyer's contact data entered with the address.
type Contact struct {
	FullName string `json:"fullName" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,max=30"`
}

// CarrierQuote is one delivery option offered by the shipping-quote service.
type CarrierQuote struct {
	QuoteID       string          `json:"quoteId"`
	CarrierID     int64           `json:"carrierId"`
	CarrierName   string          `json:"carrierName"`
	Cost          decimal.Decimal `json:"cost"`
	EstimatedDays int             `json:"estimatedDays"`
	EstimatedDate string          `json:"estimatedDate,omitempty"`
	DistanceKm    float64         `json:"distanceKm"`
	ValidUntil    string          `json:"validUntil,omitempty"`
}

// CheckoutDraft carries the selections of the checkout steps forward.
type CheckoutDraft struct {
	ID        string          `json:"id"`
	CartID    int64           `json:"cartId"`
	Method    ShippingMethod  `json:"method,omitempty"`
	Address   *Address        `json:"address,omitempty"`
	Contact   *Contact        `json:"contact,omitempty"`
	Quotes    []CarrierQuote  `json:"quotes,omitempty"`
	Carrier   *CarrierQuote   `json:"carrier,omitempty"`
	Items     []CartLineItem  `json:"items,omitempty"`
	Total     decimal.Decimal `json:"total"`
	Confirmed bool            `json:"confirmed"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
