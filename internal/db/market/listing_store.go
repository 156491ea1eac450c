package marketdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bazaar/internal/market"
)

// ListingStore persists listings in Postgres. The AVAILABLE -> SOLD flip
// is a conditional update keyed on the expected prior status, so two
// concurrent purchases cannot both win the listing.
type ListingStore struct {
	db *sql.DB
}

// NewListingStore constructs a ListingStore backed by Postgres.
func NewListingStore(db *sql.DB) *ListingStore {
	return &ListingStore{db: db}
}

// NewListingStoreWithSchema initializes the schema then returns the store.
func NewListingStoreWithSchema(ctx context.Context, db *sql.DB) (*ListingStore, error) {
	store := NewListingStore(db)
	if err := store.InitSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// InitSchema creates the listings table if it does not exist.
func (s *ListingStore) InitSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id TEXT PRIMARY KEY,
			seller_id TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			status TEXT NOT NULL DEFAULT 'available',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// FindByID loads a listing or reports market.ErrListingNotFound.
func (s *ListingStore) FindByID(ctx context.Context, id string) (*market.Listing, error) {
	if id == "" {
		return nil, fmt.Errorf("listing id required")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, seller_id, price, currency, status, created_at, updated_at
		FROM listings WHERE id = $1`,
		id,
	)
	return scanListing(row)
}

// Create inserts a new listing row.
func (s *ListingStore) Create(ctx context.Context, listing *market.Listing) (*market.Listing, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO listings (id, seller_id, price, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		listing.ID, listing.SellerID, listing.Price.Amount, listing.Price.Currency,
		listing.Status, listing.CreatedAt.UTC(), listing.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("listing %s already exists", listing.ID)
	}
	copied := *listing
	return &copied, nil
}

// MarkSold flips the listing to SOLD only when it is still AVAILABLE.
// A zero-row update means either a lost race (market.ErrListingUnavailable)
// or an unknown id (market.ErrListingNotFound).
func (s *ListingStore) MarkSold(ctx context.Context, id string) (*market.Listing, error) {
	if id == "" {
		return nil, fmt.Errorf("listing id required")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE listings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		id, market.ListingSold, market.ListingAvailable,
	)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, findErr := s.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, market.ErrListingUnavailable
	}

	return s.FindByID(ctx, id)
}

// Release reverts a SOLD listing to AVAILABLE. The default saga never
// calls this; it exists for a compensation policy that undoes the
// reservation.
func (s *ListingStore) Release(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("listing id required")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE listings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		id, market.ListingAvailable, market.ListingSold,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return market.ErrListingNotFound
	}
	return nil
}

func scanListing(row *sql.Row) (*market.Listing, error) {
	var listing market.Listing
	var status string
	err := row.Scan(
		&listing.ID, &listing.SellerID, &listing.Price.Amount, &listing.Price.Currency,
		&status, &listing.CreatedAt, &listing.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, market.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	listing.Status = market.ListingStatus(status)
	return &listing, nil
}
