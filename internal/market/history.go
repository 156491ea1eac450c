package market

import "time"

// TransactionType distinguishes the buyer and seller sides of a trade.
type TransactionType string

const (
	TypePurchase TransactionType = "purchase"
	TypeSale     TransactionType = "sale"
)

// TransactionHistory is an append-only log entry referencing an order.
// One PURCHASE row for the buyer and one SALE row for the seller are
// written after the order completes.
type TransactionHistory struct {
	ID        string // assigned by storage; empty before persistence
	UserID    string
	OrderID   string
	Type      TransactionType
	CreatedAt time.Time
}

// NewPurchaseHistory constructs the buyer-side entry for an order.
func NewPurchaseHistory(userID, orderID string) (*TransactionHistory, error) {
	return newHistory(userID, orderID, TypePurchase)
}

// NewSaleHistory constructs the seller-side entry for an order.
func NewSaleHistory(userID, orderID string) (*TransactionHistory, error) {
	return newHistory(userID, orderID, TypeSale)
}

func newHistory(userID, orderID string, typ TransactionType) (*TransactionHistory, error) {
	if err := ValidateID("user id", userID); err != nil {
		return nil, err
	}
	if err := ValidateID("order id", orderID); err != nil {
		return nil, err
	}
	return &TransactionHistory{
		UserID:    userID,
		OrderID:   orderID,
		Type:      typ,
		CreatedAt: time.Now(),
	}, nil
}
