package marketdb

import (
	"context"
	"database/sql"
	"fmt"

	"bazaar/internal/market"

	"github.com/google/uuid"
)

// HistoryStore persists transaction history rows. The table is
// append-only; rows are never updated or deleted.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore constructs a HistoryStore backed by Postgres.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// NewHistoryStoreWithSchema initializes the schema then returns the store.
func NewHistoryStoreWithSchema(ctx context.Context, db *sql.DB) (*HistoryStore, error) {
	store := NewHistoryStore(db)
	if err := store.InitSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// InitSchema creates the transaction_histories table if it does not exist.
func (s *HistoryStore) InitSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS transaction_histories (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			order_id TEXT NOT NULL,
			type TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

// Append inserts the entry and returns a copy carrying the assigned id.
func (s *HistoryStore) Append(ctx context.Context, entry *market.TransactionHistory) (*market.TransactionHistory, error) {
	copied := *entry
	if copied.ID == "" {
		copied.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transaction_histories (id, user_id, order_id, type, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		copied.ID, copied.UserID, copied.OrderID, copied.Type, copied.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, err
	}
	return &copied, nil
}

// FindByUser returns the user's entries, most recent first.
func (s *HistoryStore) FindByUser(ctx context.Context, userID string) ([]*market.TransactionHistory, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, order_id, type, created_at
		FROM transaction_histories WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*market.TransactionHistory
	for rows.Next() {
		var entry market.TransactionHistory
		var typ string
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.OrderID, &typ, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Type = market.TransactionType(typ)
		out = append(out, &entry)
	}
	return out, rows.Err()
}
