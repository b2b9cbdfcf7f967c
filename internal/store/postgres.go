package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"storefront/internal/domain"
)

// Predefined errors for store operations
var (
	ErrDraftNotFound  = errors.New("store: checkout draft not found")
	ErrDraftExists    = errors.New("store: checkout draft id already exists")
	ErrDraftConfirmed = errors.New("store: checkout draft already confirmed")
)

// PostgresStore implements CheckoutDraftStorer using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const draftColumns = `id, cart_id, method, address, contact, quotes, carrier, items, total, confirmed, created_at, updated_at`

// draftRow holds the JSON columns of a draft until they are decoded.
type draftRow struct {
	draft   domain.CheckoutDraft
	method  sql.NullString
	address []byte
	contact []byte
	quotes  []byte
	carrier []byte
	items   []byte
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (*domain.CheckoutDraft, error) {
	var r draftRow
	err := row.Scan(
		&r.draft.ID,
		&r.draft.CartID,
		&r.method,
		&r.address,
		&r.contact,
		&r.quotes,
		&r.carrier,
		&r.items,
		&r.draft.Total,
		&r.draft.Confirmed,
		&r.draft.CreatedAt,
		&r.draft.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d := r.draft
	d.Method = domain.ShippingMethod(r.method.String)
	if err := decodeJSON(r.address, &d.Address); err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	if err := decodeJSON(r.contact, &d.Contact); err != nil {
		return nil, fmt.Errorf("contact: %w", err)
	}
	if err := decodeJSON(r.quotes, &d.Quotes); err != nil {
		return nil, fmt.Errorf("quotes: %w", err)
	}
	if err := decodeJSON(r.carrier, &d.Carrier); err != nil {
		return nil, fmt.Errorf("carrier: %w", err)
	}
	if err := decodeJSON(r.items, &d.Items); err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	return &d, nil
}

func decodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// encodeJSON returns nil for nil values so the column stays NULL.
func encodeJSON(v any) ([]byte, error) {
	switch x := v.(type) {
	case *domain.Address:
		if x == nil {
			return nil, nil
		}
	case *domain.Contact:
		if x == nil {
			return nil, nil
		}
	case *domain.CarrierQuote:
		if x == nil {
			return nil, nil
		}
	case []domain.CarrierQuote:
		if x == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func draftArgs(d *domain.CheckoutDraft) (method sql.NullString, jsonCols [5][]byte, err error) {
	if d.Method != "" {
		method = sql.NullString{String: string(d.Method), Valid: true}
	}
	items := d.Items
	if items == nil {
		items = []domain.CartLineItem{}
	}
	for i, v := range []any{d.Address, d.Contact, d.Quotes, d.Carrier, items} {
		if jsonCols[i], err = encodeJSON(v); err != nil {
			return method, jsonCols, err
		}
	}
	return method, jsonCols, nil
}

// --- CheckoutDraftStorer Implementation ---

func (s *PostgresStore) CreateDraft(ctx context.Context, draft *domain.CheckoutDraft) (*domain.CheckoutDraft, error) {
	method, cols, err := draftArgs(draft)
	if err != nil {
		return nil, fmt.Errorf("store: CreateDraft failed to encode draft: %w", err)
	}
	query := `
		INSERT INTO storefront.checkout_drafts (id, cart_id, method, address, contact, quotes, carrier, items, total, confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + draftColumns + `;
	`
	row := s.db.QueryRowContext(ctx, query,
		draft.ID, draft.CartID, method, cols[0], cols[1], cols[2], cols[3], cols[4], draft.Total, draft.Confirmed)

	created, err := scanDraft(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // Unique violation
			return nil, ErrDraftExists
		}
		return nil, fmt.Errorf("store: CreateDraft failed to scan row: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetDraft(ctx context.Context, id string) (*domain.CheckoutDraft, error) {
	query := `
		SELECT ` + draftColumns + `
		FROM storefront.checkout_drafts
		WHERE id = $1;
	`
	draft, err := scanDraft(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDraftNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "22P02" { // invalid_text_representation: not a uuid
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("store: GetDraft failed to scan row: %w", err)
	}
	return draft, nil
}

// ListDrafts retrieves the drafts of a cart, newest first.
func (s *PostgresStore) ListDrafts(ctx context.Context, params ListDraftsParams) ([]domain.CheckoutDraft, int, error) {
	countQuery := `SELECT COUNT(*) FROM storefront.checkout_drafts WHERE cart_id = $1;`
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery, params.CartID).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListDrafts failed to count drafts: %w", err)
	}

	if totalCount == 0 {
		return []domain.CheckoutDraft{}, 0, nil
	}

	query := `
		SELECT ` + draftColumns + `
		FROM storefront.checkout_drafts
		WHERE cart_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := s.db.QueryContext(ctx, query, params.CartID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListDrafts failed to query drafts: %w", err)
	}
	defer rows.Close()

	drafts := make([]domain.CheckoutDraft, 0, params.Limit)
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("store: ListDrafts failed to scan draft row: %w", err)
		}
		drafts = append(drafts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListDrafts error during rows iteration: %w", err)
	}
	return drafts, totalCount, nil
}

// UpdateDraft overwrites every step of an unconfirmed draft. Confirmation is
// a one-way switch: a confirmed draft can no longer be changed.
func (s *PostgresStore) UpdateDraft(ctx context.Context, draft *domain.CheckoutDraft) (*domain.CheckoutDraft, error) {
	method, cols, err := draftArgs(draft)
	if err != nil {
		return nil, fmt.Errorf("store: UpdateDraft failed to encode draft: %w", err)
	}
	query := `
		UPDATE storefront.checkout_drafts
		SET method = $1, address = $2, contact = $3, quotes = $4, carrier = $5, items = $6, total = $7, confirmed = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $9 AND confirmed = FALSE
		RETURNING ` + draftColumns + `;
	`
	updated, err := scanDraft(s.db.QueryRowContext(ctx, query,
		method, cols[0], cols[1], cols[2], cols[3], cols[4], draft.Total, draft.Confirmed, draft.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either missing or already confirmed; tell them apart.
			existing, getErr := s.GetDraft(ctx, draft.ID)
			if getErr != nil {
				return nil, getErr
			}
			if existing.Confirmed {
				return nil, ErrDraftConfirmed
			}
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("store: UpdateDraft failed to scan row: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteDraft(ctx context.Context, id string) error {
	query := `DELETE FROM storefront.checkout_drafts WHERE id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteDraft failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteDraft failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDraftNotFound
	}
	return nil
}

// DeleteStaleDrafts removes unconfirmed drafts not touched since olderThan.
func (s *PostgresStore) DeleteStaleDrafts(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM storefront.checkout_drafts WHERE confirmed = FALSE AND updated_at < $1;`
	result, err := s.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("store: DeleteStaleDrafts failed to execute delete: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: DeleteStaleDrafts failed to get rows affected: %w", err)
	}
	if n > 0 {
		log.Printf("INFO: removed %d stale checkout drafts", n)
	}
	return n, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
