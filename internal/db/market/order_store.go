package marketdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bazaar/internal/market"

	"github.com/google/uuid"
)

// OrderStore persists orders in Postgres, assigning uuid ids on Save.
type OrderStore struct {
	db *sql.DB
}

// NewOrderStore constructs an OrderStore backed by Postgres.
func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// NewOrderStoreWithSchema initializes the schema then returns the store.
func NewOrderStoreWithSchema(ctx context.Context, db *sql.DB) (*OrderStore, error) {
	store := NewOrderStore(db)
	if err := store.InitSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// InitSchema creates the orders table if it does not exist.
func (s *OrderStore) InitSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			listing_id TEXT NOT NULL,
			buyer_id TEXT NOT NULL,
			seller_id TEXT NOT NULL,
			final_price DOUBLE PRECISION NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			paid_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ
		)
	`)
	return err
}

// Save inserts the order and returns a copy carrying the assigned id.
func (s *OrderStore) Save(ctx context.Context, order *market.Order) (*market.Order, error) {
	copied := *order
	if copied.ID == "" {
		copied.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, listing_id, buyer_id, seller_id, final_price, currency, status, created_at, paid_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		copied.ID, copied.ListingID, copied.BuyerID, copied.SellerID,
		copied.FinalPrice.Amount, copied.FinalPrice.Currency, copied.Status,
		copied.CreatedAt.UTC(), nullableTime(copied.PaidAt), nullableTime(copied.CompletedAt),
	)
	if err != nil {
		return nil, err
	}
	return &copied, nil
}

// Update rewrites the mutable order columns.
func (s *OrderStore) Update(ctx context.Context, order *market.Order) error {
	if order.ID == "" {
		return fmt.Errorf("order id required")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, paid_at = $3, completed_at = $4
		WHERE id = $1`,
		order.ID, order.Status, nullableTime(order.PaidAt), nullableTime(order.CompletedAt),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return market.ErrOrderNotFound
	}
	return nil
}

// FindByID loads an order or reports market.ErrOrderNotFound.
func (s *OrderStore) FindByID(ctx context.Context, id string) (*market.Order, error) {
	if id == "" {
		return nil, fmt.Errorf("order id required")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, listing_id, buyer_id, seller_id, final_price, currency, status, created_at, paid_at, completed_at
		FROM orders WHERE id = $1`,
		id,
	)

	order, err := scanOrder(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, market.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// FindByUser loads every order where the user is buyer or seller.
func (s *OrderStore) FindByUser(ctx context.Context, userID string) ([]*market.Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, listing_id, buyer_id, seller_id, final_price, currency, status, created_at, paid_at, completed_at
		FROM orders WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*market.Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, rows.Err()
}

func scanOrder(scan func(dest ...any) error) (*market.Order, error) {
	var order market.Order
	var status string
	var paidAt, completedAt sql.NullTime
	err := scan(
		&order.ID, &order.ListingID, &order.BuyerID, &order.SellerID,
		&order.FinalPrice.Amount, &order.FinalPrice.Currency, &status,
		&order.CreatedAt, &paidAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Status = market.OrderStatus(status)
	if paidAt.Valid {
		t := paidAt.Time
		order.PaidAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		order.CompletedAt = &t
	}
	return &order, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
