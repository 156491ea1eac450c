package market

import "time"

// ListingStatus captures where a listing is in its lifecycle.
type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingSold      ListingStatus = "sold"
	ListingCancelled ListingStatus = "cancelled"
)

// Listing is an item offered for sale by a seller. The purchase saga only
// ever flips it AVAILABLE -> SOLD; creation and the other transitions
// belong to the listing-management collaborator.
type Listing struct {
	ID        string
	SellerID  string
	Price     Money
	Status    ListingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewListing constructs an AVAILABLE listing from validated parts.
func NewListing(id, sellerID string, price float64) (*Listing, error) {
	if err := ValidateID("listing id", id); err != nil {
		return nil, err
	}
	if err := ValidateID("seller id", sellerID); err != nil {
		return nil, err
	}
	money, err := NewMoney(price)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Listing{
		ID:        id,
		SellerID:  sellerID,
		Price:     money,
		Status:    ListingAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkSold flips an AVAILABLE listing to SOLD.
func (l *Listing) MarkSold() error {
	if l.Status != ListingAvailable {
		return &InvalidStateError{Entity: "listing", Op: "be sold", State: string(l.Status)}
	}
	l.Status = ListingSold
	l.UpdatedAt = time.Now()
	return nil
}
