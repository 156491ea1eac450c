package market

import "time"

// OrderStatus captures where an order is in its lifecycle.
type OrderStatus string

const (
	OrderCreated   OrderStatus = "created"
	OrderPaid      OrderStatus = "paid"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Order records a buyer/seller agreement on a listing. FinalPrice is a
// snapshot of the listing price at reservation time, not a live
// reference. PaidAt is set exactly when status is PAID or COMPLETED and
// CompletedAt exactly when status is COMPLETED.
type Order struct {
	ID          string // assigned by storage; empty before persistence
	ListingID   string
	BuyerID     string
	SellerID    string
	FinalPrice  Money
	Status      OrderStatus
	CreatedAt   time.Time
	PaidAt      *time.Time
	CompletedAt *time.Time
}

// NewOrder constructs a CREATED order from validated parts. The id stays
// empty until storage assigns one.
func NewOrder(listingID, buyerID, sellerID string, finalPrice float64) (*Order, error) {
	if err := ValidateID("listing id", listingID); err != nil {
		return nil, err
	}
	if err := ValidateID("buyer id", buyerID); err != nil {
		return nil, err
	}
	if err := ValidateID("seller id", sellerID); err != nil {
		return nil, err
	}
	price, err := NewMoney(finalPrice)
	if err != nil {
		return nil, err
	}
	return &Order{
		ListingID:  listingID,
		BuyerID:    buyerID,
		SellerID:   sellerID,
		FinalPrice: price,
		Status:     OrderCreated,
		CreatedAt:  time.Now(),
	}, nil
}

// Pay moves a CREATED order to PAID and stamps paidAt.
func (o *Order) Pay() error {
	if o.Status != OrderCreated {
		return &InvalidStateError{Entity: "order", Op: "be paid", State: string(o.Status)}
	}
	now := time.Now()
	o.Status = OrderPaid
	o.PaidAt = &now
	return nil
}

// Complete moves a PAID order to COMPLETED and stamps completedAt.
func (o *Order) Complete() error {
	if o.Status != OrderPaid {
		return &InvalidStateError{Entity: "order", Op: "be completed", State: string(o.Status)}
	}
	now := time.Now()
	o.Status = OrderCompleted
	o.CompletedAt = &now
	return nil
}

// Cancel marks any non-completed order CANCELLED.
func (o *Order) Cancel() error {
	if o.Status == OrderCompleted {
		return &InvalidStateError{Entity: "order", Op: "be cancelled", State: string(o.Status)}
	}
	o.Status = OrderCancelled
	return nil
}
