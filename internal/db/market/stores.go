package marketdb

import (
	"context"
	"database/sql"
	"fmt"
)

// Stores bundles the four Postgres-backed repositories so callers can
// initialize the whole schema in one call.
type Stores struct {
	Listings *ListingStore
	Orders   *OrderStore
	Payments *PaymentStore
	History  *HistoryStore
}

// NewStoresWithSchema creates every store and runs its schema setup.
func NewStoresWithSchema(ctx context.Context, db *sql.DB) (*Stores, error) {
	listings, err := NewListingStoreWithSchema(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("listings schema: %w", err)
	}
	orders, err := NewOrderStoreWithSchema(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("orders schema: %w", err)
	}
	payments, err := NewPaymentStoreWithSchema(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("payments schema: %w", err)
	}
	history, err := NewHistoryStoreWithSchema(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("history schema: %w", err)
	}
	return &Stores{
		Listings: listings,
		Orders:   orders,
		Payments: payments,
		History:  history,
	}, nil
}
