package marketdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"bazaar/internal/market"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	}

	return db, mock, cleanup
}

func listingRows(status string) *sqlmock.Rows {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "seller_id", "price", "currency", "status", "created_at", "updated_at"}).
		AddRow("listing-01", "seller-001", 25.0, "USD", status, now, now)
}

func TestListingStore_InitSchema(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS listings").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	store := NewListingStore(db)
	if err := store.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
}

func TestListingStore_FindByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectQuery("SELECT id, seller_id, price, currency, status, created_at, updated_at").
		WithArgs("listing-01").
		WillReturnRows(listingRows("available"))
	mock.ExpectClose()

	store := NewListingStore(db)
	listing, err := store.FindByID(context.Background(), "listing-01")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if listing.Status != market.ListingAvailable || listing.Price.Amount != 25.0 {
		t.Fatalf("unexpected listing: %+v", listing)
	}
}

func TestListingStore_FindByID_NotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectQuery("SELECT id, seller_id, price, currency, status, created_at, updated_at").
		WithArgs("listing-99").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectClose()

	store := NewListingStore(db)
	if _, err := store.FindByID(context.Background(), "listing-99"); !errors.Is(err, market.ErrListingNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListingStore_Create(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectExec("INSERT INTO listings").
		WithArgs("listing-01", "seller-001", 25.0, "USD", "available", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectClose()

	listing, err := market.NewListing("listing-01", "seller-001", 25)
	if err != nil {
		t.Fatalf("new listing: %v", err)
	}

	store := NewListingStore(db)
	if _, err := store.Create(context.Background(), listing); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestListingStore_Create_Duplicate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectExec("INSERT INTO listings").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	listing, err := market.NewListing("listing-01", "seller-001", 25)
	if err != nil {
		t.Fatalf("new listing: %v", err)
	}

	store := NewListingStore(db)
	if _, err := store.Create(context.Background(), listing); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestListingStore_MarkSold_Wins(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectExec("UPDATE listings").
		WithArgs("listing-01", "sold", "available").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, seller_id, price, currency, status, created_at, updated_at").
		WithArgs("listing-01").
		WillReturnRows(listingRows("sold"))
	mock.ExpectClose()

	store := NewListingStore(db)
	listing, err := store.MarkSold(context.Background(), "listing-01")
	if err != nil {
		t.Fatalf("MarkSold: %v", err)
	}
	if listing.Status != market.ListingSold {
		t.Fatalf("expected sold, got %s", listing.Status)
	}
}

func TestListingStore_MarkSold_LosesRace(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectExec("UPDATE listings").
		WithArgs("listing-01", "sold", "available").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, seller_id, price, currency, status, created_at, updated_at").
		WithArgs("listing-01").
		WillReturnRows(listingRows("sold"))
	mock.ExpectClose()

	store := NewListingStore(db)
	if _, err := store.MarkSold(context.Background(), "listing-01"); !errors.Is(err, market.ErrListingUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestListingStore_MarkSold_UnknownID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectExec("UPDATE listings").
		WithArgs("listing-99", "sold", "available").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, seller_id, price, currency, status, created_at, updated_at").
		WithArgs("listing-99").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectClose()

	store := NewListingStore(db)
	if _, err := store.MarkSold(context.Background(), "listing-99"); !errors.Is(err, market.ErrListingNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListingStore_Release(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectExec("UPDATE listings").
		WithArgs("listing-01", "available", "sold").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectClose()

	store := NewListingStore(db)
	if err := store.Release(context.Background(), "listing-01"); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestListingStore_WithSchema(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	t.Cleanup(cleanup)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS listings").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	store, err := NewListingStoreWithSchema(context.Background(), db)
	if err != nil {
		t.Fatalf("WithSchema: %v", err)
	}
	if store == nil {
		t.Fatalf("expected store")
	}
}
