package market

import (
	"context"
	"time"
)

// ListingRepository is the persistence boundary for listings. FindByID
// returns ErrListingNotFound for unknown ids. MarkSold performs a
// conditional status swap keyed on AVAILABLE and returns
// ErrListingUnavailable when another writer got there first.
type ListingRepository interface {
	FindByID(ctx context.Context, id string) (*Listing, error)
	Create(ctx context.Context, listing *Listing) (*Listing, error)
	MarkSold(ctx context.Context, id string) (*Listing, error)
	Release(ctx context.Context, id string) error
}

// OrderRepository is the persistence boundary for orders. Save assigns
// the storage id and returns the stored order.
type OrderRepository interface {
	Save(ctx context.Context, order *Order) (*Order, error)
	Update(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindByUser(ctx context.Context, userID string) ([]*Order, error)
}

// PaymentRepository is the persistence boundary for payments. Save
// returns ErrPaymentExists when the order already has a payment row.
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) (*Payment, error)
	Update(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id string) (*Payment, error)
	FindByOrderID(ctx context.Context, orderID string) (*Payment, error)
}

// HistoryRepository is the append-only persistence boundary for
// transaction history.
type HistoryRepository interface {
	Append(ctx context.Context, history *TransactionHistory) (*TransactionHistory, error)
	FindByUser(ctx context.Context, userID string) ([]*TransactionHistory, error)
}

// PurchaseEvent describes a completed purchase for downstream consumers.
type PurchaseEvent struct {
	OrderID     string    `json:"order_id"`
	ListingID   string    `json:"listing_id"`
	BuyerID     string    `json:"buyer_id"`
	SellerID    string    `json:"seller_id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	CompletedAt time.Time `json:"completed_at"`
}

// EventPublisher pushes purchase events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev PurchaseEvent) error
}
