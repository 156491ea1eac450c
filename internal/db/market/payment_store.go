package marketdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bazaar/internal/market"

	"github.com/google/uuid"
)

// PaymentStore persists payments in Postgres. A UNIQUE constraint on
// order_id enforces at most one payment per order.
type PaymentStore struct {
	db *sql.DB
}

// NewPaymentStore constructs a PaymentStore backed by Postgres.
func NewPaymentStore(db *sql.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

// NewPaymentStoreWithSchema initializes the schema then returns the store.
func NewPaymentStoreWithSchema(ctx context.Context, db *sql.DB) (*PaymentStore, error) {
	store := NewPaymentStore(db)
	if err := store.InitSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// InitSchema creates the payments table if it does not exist.
func (s *PaymentStore) InitSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL UNIQUE,
			amount DOUBLE PRECISION NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			fee DOUBLE PRECISION NOT NULL,
			method TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			processed_at TIMESTAMPTZ,
			released_at TIMESTAMPTZ
		)
	`)
	return err
}

// Save inserts the payment, reporting market.ErrPaymentExists when the
// order already carries one.
func (s *PaymentStore) Save(ctx context.Context, payment *market.Payment) (*market.Payment, error) {
	copied := *payment
	if copied.ID == "" {
		copied.ID = uuid.NewString()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, amount, currency, fee, method, status, created_at, processed_at, released_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (order_id) DO NOTHING`,
		copied.ID, copied.OrderID, copied.Amount.Amount, copied.Amount.Currency,
		copied.Fee.Amount, copied.Method, copied.Status, copied.CreatedAt.UTC(),
		nullableTime(copied.ProcessedAt), nullableTime(copied.ReleasedAt),
	)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, market.ErrPaymentExists
	}
	return &copied, nil
}

// Update rewrites the mutable payment columns.
func (s *PaymentStore) Update(ctx context.Context, payment *market.Payment) error {
	if payment.ID == "" {
		return fmt.Errorf("payment id required")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $2, processed_at = $3, released_at = $4
		WHERE id = $1`,
		payment.ID, payment.Status,
		nullableTime(payment.ProcessedAt), nullableTime(payment.ReleasedAt),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return market.ErrPaymentNotFound
	}
	return nil
}

// FindByID loads a payment or reports market.ErrPaymentNotFound.
func (s *PaymentStore) FindByID(ctx context.Context, id string) (*market.Payment, error) {
	if id == "" {
		return nil, fmt.Errorf("payment id required")
	}
	return s.findOne(ctx, `
		SELECT id, order_id, amount, currency, fee, method, status, created_at, processed_at, released_at
		FROM payments WHERE id = $1`,
		id,
	)
}

// FindByOrderID loads the payment attached to an order.
func (s *PaymentStore) FindByOrderID(ctx context.Context, orderID string) (*market.Payment, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id required")
	}
	return s.findOne(ctx, `
		SELECT id, order_id, amount, currency, fee, method, status, created_at, processed_at, released_at
		FROM payments WHERE order_id = $1`,
		orderID,
	)
}

func (s *PaymentStore) findOne(ctx context.Context, query string, arg any) (*market.Payment, error) {
	row := s.db.QueryRowContext(ctx, query, arg)

	var payment market.Payment
	var method, status string
	var processedAt, releasedAt sql.NullTime
	err := row.Scan(
		&payment.ID, &payment.OrderID, &payment.Amount.Amount, &payment.Amount.Currency,
		&payment.Fee.Amount, &method, &status, &payment.CreatedAt, &processedAt, &releasedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, market.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	payment.Fee.Currency = payment.Amount.Currency
	payment.Method = market.PaymentMethod(method)
	payment.Status = market.PaymentStatus(status)
	if processedAt.Valid {
		t := processedAt.Time
		payment.ProcessedAt = &t
	}
	if releasedAt.Valid {
		t := releasedAt.Time
		payment.ReleasedAt = &t
	}
	return &payment, nil
}
