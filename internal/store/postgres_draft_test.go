package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

// Helper function to create a mock DB and PostgresStore for testing
func newMockDBAndStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	store := NewPostgresStore(db)
	require.NotNil(t, store, "Store should not be nil")

	return db, mock, store
}

func PtrTo[T any](v T) *T {
	return &v
}

// jsonArg matches a JSON column argument against the JSON encoding of want.
type jsonArg struct{ want any }

func (a jsonArg) Match(v driver.Value) bool {
	got, ok := v.([]byte)
	if !ok {
		return false
	}
	want, err := json.Marshal(a.want)
	if err != nil {
		return false
	}
	return assert.ObjectsAreEqual(string(want), string(got))
}

// nullArg matches a NULL column argument.
type nullArg struct{}

func (nullArg) Match(v driver.Value) bool {
	if v == nil {
		return true
	}
	b, ok := v.([]byte)
	return ok && b == nil
}

var draftCols = []string{"id", "cart_id", "method", "address", "contact", "quotes", "carrier", "items", "total", "confirmed", "created_at", "updated_at"}

const draftID = "6f1c2a9e-3b5d-4f7a-9c1e-2d8b7a6c5e40"

func sampleItems() []domain.CartLineItem {
	return []domain.CartLineItem{{ProductID: 5, VariantID: 9, Name: "Polera", UnitPrice: decimal.NewFromInt(100), Quantity: 2}}
}

func TestPostgresStore_CreateDraft(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	draft := &domain.CheckoutDraft{ID: draftID, CartID: 7, Items: sampleItems(), Total: decimal.NewFromInt(200)}
	itemsJSON, _ := json.Marshal(draft.Items)

	query := regexp.QuoteMeta(`INSERT INTO storefront.checkout_drafts (id, cart_id, method, address, contact, quotes, carrier, items, total, confirmed)`)
	rows := sqlmock.NewRows(draftCols).
		AddRow(draftID, int64(7), nil, nil, nil, nil, nil, itemsJSON, "200", false, now, now)
	mock.ExpectQuery(query).
		WithArgs(draftID, int64(7), nullArg{}, nullArg{}, nullArg{}, nullArg{}, nullArg{}, jsonArg{draft.Items}, draft.Total, false).
		WillReturnRows(rows)

	created, err := store.CreateDraft(context.Background(), draft)

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, draftID, created.ID)
	assert.Equal(t, domain.ShippingMethod(""), created.Method)
	assert.Nil(t, created.Address)
	assert.Nil(t, created.Carrier)
	require.Len(t, created.Items, 1)
	assert.Equal(t, int32(2), created.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(200).Equal(created.Total))
	assert.WithinDuration(t, now, created.CreatedAt, time.Second)

	require.NoError(t, mock.ExpectationsWereMet(), "SQLmock expectations were not met")
}

func TestPostgresStore_CreateDraft_Exists(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO storefront.checkout_drafts`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "checkout_drafts_pkey"})

	created, err := store.CreateDraft(context.Background(), &domain.CheckoutDraft{ID: draftID, CartID: 7})

	assert.True(t, errors.Is(err, ErrDraftExists))
	assert.Nil(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDraft_Found(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	address := domain.Address{Line: "Av. Arequipa 123", District: "Lince", Province: "Lima", Country: "Perú", Latitude: PtrTo(-12.08), Longitude: PtrTo(-77.03)}
	carrier := domain.CarrierQuote{QuoteID: "Q-1", CarrierID: 2, CarrierName: "Olva", Cost: decimal.RequireFromString("15.5"), EstimatedDays: 3}
	addressJSON, _ := json.Marshal(address)
	carrierJSON, _ := json.Marshal(carrier)
	quotesJSON, _ := json.Marshal([]domain.CarrierQuote{carrier})
	itemsJSON, _ := json.Marshal(sampleItems())

	query := regexp.QuoteMeta(`
		SELECT id, cart_id, method, address, contact, quotes, carrier, items, total, confirmed, created_at, updated_at
		FROM storefront.checkout_drafts
		WHERE id = $1;
	`)
	rows := sqlmock.NewRows(draftCols).
		AddRow(draftID, int64(7), "delivery", addressJSON, nil, quotesJSON, carrierJSON, itemsJSON, "215.5", false, now, now)
	mock.ExpectQuery(query).WithArgs(draftID).WillReturnRows(rows)

	draft, err := store.GetDraft(context.Background(), draftID)

	require.NoError(t, err)
	assert.Equal(t, domain.ShippingDelivery, draft.Method)
	require.NotNil(t, draft.Address)
	assert.Equal(t, "Lince", draft.Address.District)
	assert.Equal(t, PtrTo(-12.08), draft.Address.Latitude)
	assert.Nil(t, draft.Contact)
	require.NotNil(t, draft.Carrier)
	assert.Equal(t, "Q-1", draft.Carrier.QuoteID)
	assert.Len(t, draft.Quotes, 1)
	assert.Equal(t, "215.5", draft.Total.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDraft_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM storefront.checkout_drafts`)).
		WithArgs(draftID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM storefront.checkout_drafts`)).
		WithArgs("not-a-uuid").
		WillReturnError(&pq.Error{Code: "22P02"})

	_, err := store.GetDraft(context.Background(), draftID)
	assert.ErrorIs(t, err, ErrDraftNotFound)

	_, err = store.GetDraft(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrDraftNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListDrafts(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM storefront.checkout_drafts WHERE cart_id = $1;`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY updated_at DESC`)).
		WithArgs(int64(7), 10, 0).
		WillReturnRows(sqlmock.NewRows(draftCols).
			AddRow(draftID, int64(7), "pickup", nil, nil, nil, nil, []byte(`[]`), "0", true, now, now).
			AddRow("11111111-2222-3333-4444-555555555555", int64(7), nil, nil, nil, nil, nil, []byte(`[]`), "0", false, now, now))

	drafts, total, err := store.ListDrafts(context.Background(), ListDraftsParams{CartID: 7, Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, drafts, 2)
	assert.Equal(t, domain.ShippingPickup, drafts[0].Method)
	assert.True(t, drafts[0].Confirmed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListDrafts_Empty(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*)`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	drafts, total, err := store.ListDrafts(context.Background(), ListDraftsParams{CartID: 7, Limit: 10})

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, drafts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateDraft(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	contact := &domain.Contact{FullName: "Ana Pérez", Email: "ana@example.com", Phone: "999888777"}
	draft := &domain.CheckoutDraft{ID: draftID, CartID: 7, Method: domain.ShippingPickup, Contact: contact, Items: sampleItems(), Total: decimal.NewFromInt(200)}
	contactJSON, _ := json.Marshal(contact)
	itemsJSON, _ := json.Marshal(draft.Items)

	query := regexp.QuoteMeta(`
		UPDATE storefront.checkout_drafts
		SET method = $1, address = $2, contact = $3, quotes = $4, carrier = $5, items = $6, total = $7, confirmed = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $9 AND confirmed = FALSE
	`)
	mock.ExpectQuery(query).
		WithArgs("pickup", nullArg{}, jsonArg{contact}, nullArg{}, nullArg{}, jsonArg{draft.Items}, draft.Total, false, draftID).
		WillReturnRows(sqlmock.NewRows(draftCols).
			AddRow(draftID, int64(7), "pickup", nil, contactJSON, nil, nil, itemsJSON, "200", false, now, now))

	updated, err := store.UpdateDraft(context.Background(), draft)

	require.NoError(t, err)
	assert.Equal(t, contact, updated.Contact)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateDraft_Confirmed(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE storefront.checkout_drafts`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM storefront.checkout_drafts`)).
		WithArgs(draftID).
		WillReturnRows(sqlmock.NewRows(draftCols).
			AddRow(draftID, int64(7), "pickup", nil, nil, nil, nil, []byte(`[]`), "0", true, now, now))

	_, err := store.UpdateDraft(context.Background(), &domain.CheckoutDraft{ID: draftID, Method: domain.ShippingDelivery})

	assert.ErrorIs(t, err, ErrDraftConfirmed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteDraft(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	query := regexp.QuoteMeta(`DELETE FROM storefront.checkout_drafts WHERE id = $1;`)
	mock.ExpectExec(query).WithArgs(draftID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs(draftID).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.DeleteDraft(context.Background(), draftID))
	assert.ErrorIs(t, store.DeleteDraft(context.Background(), draftID), ErrDraftNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteStaleDrafts(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM storefront.checkout_drafts WHERE confirmed = FALSE AND updated_at < $1;`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.DeleteStaleDrafts(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
