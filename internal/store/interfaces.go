package store

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// ListDraftsParams holds parameters for listing the drafts of a cart.
type ListDraftsParams struct {
	CartID int64
	Limit  int
	Offset int
}

// CheckoutDraftStorer defines the database operations for checkout drafts.
type CheckoutDraftStorer interface {
	CreateDraft(ctx context.Context, draft *domain.CheckoutDraft) (*domain.CheckoutDraft, error)
	GetDraft(ctx context.Context, id string) (*domain.CheckoutDraft, error)
	ListDrafts(ctx context.Context, params ListDraftsParams) ([]domain.CheckoutDraft, int, error) // Returns drafts and total count
	UpdateDraft(ctx context.Context, draft *domain.CheckoutDraft) (*domain.CheckoutDraft, error)
	DeleteDraft(ctx context.Context, id string) error
	DeleteStaleDrafts(ctx context.Context, olderThan time.Time) (int64, error) // Unconfirmed drafts only
}
