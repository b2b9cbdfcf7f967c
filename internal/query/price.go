package query

import (
	"errors"
	"maps"

	"storefront/internal/domain"
)

// Price draft fields, as named in the URL.
const (
	FieldPriceMin = "priceMin"
	FieldPriceMax = "priceMax"
)

var (
	ErrNegativePrice = errors.New("el precio no puede ser negativo")
	ErrMinAboveMax   = errors.New("el precio mínimo no puede ser mayor que el máximo")
	ErrMaxBelowMin   = errors.New("el precio máximo no puede ser menor que el mínimo")
)

// FieldErrors maps a draft field to the reason its last edit was rejected.
type FieldErrors map[string]error

// PriceDraft is the price range as typed, not yet applied.
type PriceDraft struct {
	Min *float64
	Max *float64
}

func (d PriceDraft) differs(f domain.ProductFilters) bool {
	return !sameFloat(d.Min, f.PriceMin) || !sameFloat(d.Max, f.PriceMax)
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Draft returns the buffered price range.
func (s *State) Draft() PriceDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PriceDraft{Min: copyFloat(s.draft.Min), Max: copyFloat(s.draft.Max)}
}

// Errors returns the outstanding field errors of the price draft.
func (s *State) Errors() FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.errs)
}

// CanApply reports whether ApplyPrice would commit.
func (s *State) CanApply() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs) == 0
}

// SetDraftMin buffers a new minimum price; nil clears it. A negative value or
// one above the buffered maximum is rejected: the draft keeps its previous
// minimum and the field carries the error until a valid edit replaces it.
func (s *State) SetDraftMin(v *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v != nil {
		switch {
		case *v < 0:
			return s.reject(FieldPriceMin, ErrNegativePrice)
		case s.draft.Max != nil && *v > *s.draft.Max:
			return s.reject(FieldPriceMin, ErrMinAboveMax)
		}
	}
	s.draft.Min = copyFloat(v)
	delete(s.errs, FieldPriceMin)
	s.edited()
	return nil
}

// SetDraftMax is SetDraftMin for the maximum price.
func (s *State) SetDraftMax(v *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v != nil {
		switch {
		case *v < 0:
			return s.reject(FieldPriceMax, ErrNegativePrice)
		case s.draft.Min != nil && *v < *s.draft.Min:
			return s.reject(FieldPriceMax, ErrMaxBelowMin)
		}
	}
	s.draft.Max = copyFloat(v)
	delete(s.errs, FieldPriceMax)
	s.edited()
	return nil
}

// ClearDraft empties both buffered bounds and their errors, so the next
// edits are checked against each other only.
func (s *State) ClearDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = PriceDraft{}
	delete(s.errs, FieldPriceMin)
	delete(s.errs, FieldPriceMax)
	s.edited()
}

func (s *State) reject(field string, err error) error {
	s.errs[field] = err
	if s.phase == PhaseIdle {
		s.phase = PhaseEditing
	}
	return err
}

func (s *State) edited() {
	if s.phase == PhaseApplying {
		return
	}
	if s.draft.differs(s.filters) || len(s.errs) > 0 {
		s.phase = PhaseEditing
		return
	}
	s.phase = PhaseIdle
}

// ApplyPrice commits the draft into the filters and goes back to page 1. It
// refuses with ErrPriceInvalid while any draft field carries an error.
func (s *State) ApplyPrice() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) > 0 {
		return ErrPriceInvalid
	}
	s.filters.PriceMin = copyFloat(s.draft.Min)
	s.filters.PriceMax = copyFloat(s.draft.Max)
	s.page.Page = 1
	s.phase = PhaseApplying
	return nil
}

// DiscardDraft resets the draft to the committed range and drops its errors.
func (s *State) DiscardDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = PriceDraft{Min: copyFloat(s.filters.PriceMin), Max: copyFloat(s.filters.PriceMax)}
	s.errs = FieldErrors{}
	if s.phase == PhaseEditing {
		s.phase = PhaseIdle
	}
}
