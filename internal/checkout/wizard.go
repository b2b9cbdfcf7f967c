package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/backend"
	"storefront/internal/domain"
	"storefront/internal/store"
)

// Step numbers the checkout screens in the order they must be completed.
type Step int

const (
	StepMethod Step = iota + 1
	StepAddress
	StepCarrier
	StepConfirm
)

func (s Step) String() string {
	switch s {
	case StepMethod:
		return "method"
	case StepAddress:
		return "address"
	case StepCarrier:
		return "carrier"
	case StepConfirm:
		return "confirm"
	}
	return "none"
}

var (
	ErrEmptyCart          = errors.New("checkout: cart is empty")
	ErrStepOutOfOrder     = errors.New("checkout: a previous step is not complete")
	ErrInvalidMethod      = errors.New("checkout: unknown shipping method")
	ErrInvalidInput       = errors.New("checkout: invalid address or contact")
	ErrAddressRequired    = errors.New("checkout: delivery needs an address")
	ErrMissingCoordinates = errors.New("checkout: address has no coordinates")
	ErrNoCarrierStep      = errors.New("checkout: pickup orders have no carrier step")
	ErrQuoteNotOffered    = errors.New("checkout: quote was not offered for this draft")
)

// Quoter returns the delivery options for a destination.
type Quoter interface {
	Quotes(ctx context.Context, q backend.QuoteRequest) ([]domain.CarrierQuote, error)
}

// Wizard sequences the checkout steps over persisted drafts. Every write
// loads the draft, checks that the previous steps are complete and saves the
// whole draft back.
type Wizard struct {
	drafts   store.CheckoutDraftStorer
	quoter   Quoter
	validate *validator.Validate
}

// NewWizard creates a Wizard.
func NewWizard(drafts store.CheckoutDraftStorer, quoter Quoter) *Wizard {
	return &Wizard{
		drafts:   drafts,
		quoter:   quoter,
		validate: validator.New(),
	}
}

// Completed returns the last step of d that is complete, counting from the
// first. A pickup draft completes the carrier step with the address step.
func Completed(d *domain.CheckoutDraft) Step {
	if d.Method != domain.ShippingDelivery && d.Method != domain.ShippingPickup {
		return 0
	}
	if d.Contact == nil || (d.Method == domain.ShippingDelivery && d.Address == nil) {
		return StepMethod
	}
	if d.Method == domain.ShippingDelivery && d.Carrier == nil {
		return StepAddress
	}
	if !d.Confirmed {
		return StepCarrier
	}
	return StepConfirm
}

// Current returns the step the buyer should be looking at.
func Current(d *domain.CheckoutDraft) Step {
	done := Completed(d)
	if done == StepConfirm {
		return StepConfirm
	}
	return done + 1
}

// Start opens a draft for the current contents of c.
func (w *Wizard) Start(ctx context.Context, c domain.Cart) (*domain.CheckoutDraft, error) {
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}
	snapshot := c.Clone()
	draft := &domain.CheckoutDraft{
		ID:     uuid.NewString(),
		CartID: c.ID,
		Items:  snapshot.Items,
		Total:  snapshot.Total(),
	}
	created, err := w.drafts.CreateDraft(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("checkout: Start failed: %w", err)
	}
	log.Printf("INFO: checkout draft %s opened for cart %d", created.ID, c.ID)
	return created, nil
}

// Get returns the draft with the given id.
func (w *Wizard) Get(ctx context.Context, id string) (*domain.CheckoutDraft, error) {
	return w.drafts.GetDraft(ctx, id)
}

// SetMethod records the shipping method. Changing it invalidates the quotes
// and the carrier; the address and contact are kept.
func (w *Wizard) SetMethod(ctx context.Context, id string, method domain.ShippingMethod) (*domain.CheckoutDraft, error) {
	if method != domain.ShippingDelivery && method != domain.ShippingPickup {
		return nil, ErrInvalidMethod
	}
	d, err := w.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Method != method {
		d.Method = method
		d.Quotes = nil
		d.Carrier = nil
	}
	return w.save(ctx, d)
}

// SetAddress records the contact and, for delivery, the address. A changed
// address invalidates the quotes and the carrier.
func (w *Wizard) SetAddress(ctx context.Context, id string, addr *domain.Address, contact domain.Contact) (*domain.CheckoutDraft, error) {
	if err := w.validate.Struct(contact); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if addr != nil {
		if err := w.validate.Struct(addr); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	d, err := w.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if Completed(d) < StepMethod {
		return nil, ErrStepOutOfOrder
	}
	if d.Method == domain.ShippingDelivery && addr == nil {
		return nil, ErrAddressRequired
	}
	if !reflect.DeepEqual(d.Address, addr) {
		d.Quotes = nil
		d.Carrier = nil
	}
	d.Address = addr
	d.Contact = &contact
	return w.save(ctx, d)
}

// Quote asks the shipping service for the carriers that can deliver the
// draft's items to its address and stores the offer on the draft. A carrier
// chosen earlier is kept only if it is offered again.
func (w *Wizard) Quote(ctx context.Context, id string) (*domain.CheckoutDraft, error) {
	d, err := w.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := carrierStepOpen(d); err != nil {
		return nil, err
	}
	if d.Address.Latitude == nil || d.Address.Longitude == nil {
		return nil, ErrMissingCoordinates
	}
	quotes, err := w.quoter.Quotes(ctx, backend.QuoteRequest{
		Latitude:  *d.Address.Latitude,
		Longitude: *d.Address.Longitude,
		Address:   d.Address.Line,
		Items:     d.Items,
	})
	if err != nil {
		return nil, fmt.Errorf("checkout: Quote failed: %w", err)
	}
	d.Quotes = quotes
	if d.Carrier != nil && findQuote(quotes, d.Carrier.QuoteID) < 0 {
		d.Carrier = nil
	}
	return w.save(ctx, d)
}

// SelectCarrier chooses one of the quotes stored on the draft.
func (w *Wizard) SelectCarrier(ctx context.Context, id, quoteID string) (*domain.CheckoutDraft, error) {
	d, err := w.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := carrierStepOpen(d); err != nil {
		return nil, err
	}
	i := findQuote(d.Quotes, quoteID)
	if i < 0 {
		return nil, ErrQuoteNotOffered
	}
	chosen := d.Quotes[i]
	d.Carrier = &chosen
	return w.save(ctx, d)
}

// Confirm closes the draft. A confirmed draft is read-only.
func (w *Wizard) Confirm(ctx context.Context, id string) (*domain.CheckoutDraft, error) {
	d, err := w.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if Completed(d) < StepCarrier {
		return nil, ErrStepOutOfOrder
	}
	d.Confirmed = true
	confirmed, err := w.save(ctx, d)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: checkout draft %s confirmed, total %s", confirmed.ID, confirmed.Total.StringFixed(2))
	return confirmed, nil
}

// List returns the drafts opened for a cart, newest first, and their count.
func (w *Wizard) List(ctx context.Context, cartID int64, limit, offset int) ([]domain.CheckoutDraft, int, error) {
	return w.drafts.ListDrafts(ctx, store.ListDraftsParams{CartID: cartID, Limit: limit, Offset: offset})
}

// Discard abandons a draft.
func (w *Wizard) Discard(ctx context.Context, id string) error {
	return w.drafts.DeleteDraft(ctx, id)
}

// Expire removes the unconfirmed drafts nobody touched within ttl.
func (w *Wizard) Expire(ctx context.Context, ttl time.Duration) (int64, error) {
	return w.drafts.DeleteStaleDrafts(ctx, time.Now().Add(-ttl))
}

func (w *Wizard) open(ctx context.Context, id string) (*domain.CheckoutDraft, error) {
	d, err := w.drafts.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Confirmed {
		return nil, store.ErrDraftConfirmed
	}
	return d, nil
}

func (w *Wizard) save(ctx context.Context, d *domain.CheckoutDraft) (*domain.CheckoutDraft, error) {
	d.Total = draftTotal(d)
	updated, err := w.drafts.UpdateDraft(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("checkout: save draft %s: %w", d.ID, err)
	}
	return updated, nil
}

func carrierStepOpen(d *domain.CheckoutDraft) error {
	if d.Method == domain.ShippingPickup {
		return ErrNoCarrierStep
	}
	if Completed(d) < StepAddress {
		return ErrStepOutOfOrder
	}
	return nil
}

func findQuote(quotes []domain.CarrierQuote, id string) int {
	for i, q := range quotes {
		if q.QuoteID == id {
			return i
		}
	}
	return -1
}

// draftTotal is the items total plus the chosen carrier's cost.
func draftTotal(d *domain.CheckoutDraft) decimal.Decimal {
	total := domain.Cart{Items: d.Items}.Total()
	if d.Method == domain.ShippingDelivery && d.Carrier != nil {
		total = total.Add(d.Carrier.Cost)
	}
	return total
}
