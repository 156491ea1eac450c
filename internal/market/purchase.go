package market

import (
	"context"
	"fmt"
	"log"
)

// PurchaseService coordinates the purchase saga: listing reservation,
// payment collection, order settlement and transaction history. Each
// step persists through its own repository; there is no cross-entity
// transaction.
type PurchaseService struct {
	listings ListingRepository
	orders   OrderRepository
	payments PaymentRepository
	history  HistoryRepository
	gateway  PaymentGateway
	events   EventPublisher
	logf     func(format string, args ...any)
}

// NewPurchaseService constructs a PurchaseService. events may be nil.
func NewPurchaseService(
	listings ListingRepository,
	orders OrderRepository,
	payments PaymentRepository,
	history HistoryRepository,
	gateway PaymentGateway,
	events EventPublisher,
	logf func(format string, args ...any),
) *PurchaseService {
	if logf == nil {
		logf = log.Printf
	}
	return &PurchaseService{
		listings: listings,
		orders:   orders,
		payments: payments,
		history:  history,
		gateway:  gateway,
		events:   events,
		logf:     logf,
	}
}

// Purchase runs the buyer-facing saga and returns the order in its final
// observed state, COMPLETED on success.
//
// The listing flip is a conditional swap keyed on AVAILABLE, so of two
// concurrent purchases for the same listing exactly one settles; the
// loser fails with ErrListingUnavailable.
func (s *PurchaseService) Purchase(ctx context.Context, buyerID, listingID string, method PaymentMethod) (*Order, error) {
	if err := ValidateID("buyer id", buyerID); err != nil {
		return nil, err
	}
	if err := ValidateID("listing id", listingID); err != nil {
		return nil, err
	}
	if _, err := ParsePaymentMethod(string(method)); err != nil {
		return nil, err
	}

	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != ListingAvailable {
		return nil, ErrListingUnavailable
	}

	order, err := NewOrder(listingID, buyerID, listing.SellerID, listing.Price.Amount)
	if err != nil {
		return nil, err
	}
	order, err = s.orders.Save(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	if _, err := s.listings.MarkSold(ctx, listingID); err != nil {
		return nil, err
	}

	if _, err := s.collectPayment(ctx, order, method); err != nil {
		s.compensatePaymentFailure(ctx, order)
		return nil, err
	}

	if err := order.Pay(); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update paid order: %w", err)
	}

	if err := order.Complete(); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update completed order: %w", err)
	}

	s.recordHistory(ctx, order)
	s.publishCompleted(ctx, order)

	return order, nil
}

// collectPayment persists a PENDING payment, charges the gateway, and
// records the outcome. Declines come back as *DeclineError; transport
// errors propagate wrapped. Both leave the payment persisted as FAILED.
func (s *PurchaseService) collectPayment(ctx context.Context, order *Order, method PaymentMethod) (*Payment, error) {
	payment, err := NewPayment(order.ID, order.FinalPrice.Amount, method)
	if err != nil {
		return nil, err
	}
	payment, err = s.payments.Save(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}

	result, err := s.gateway.ProcessPayment(ctx, payment.Amount.Amount, method, map[string]string{"orderId": order.ID})
	if err != nil {
		s.failPayment(ctx, payment)
		return nil, fmt.Errorf("payment gateway: %w", err)
	}
	if !result.Success {
		s.failPayment(ctx, payment)
		return nil, &DeclineError{Reason: result.Reason}
	}

	if err := payment.Process(); err != nil {
		return nil, err
	}
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("update processed payment: %w", err)
	}
	return payment, nil
}

func (s *PurchaseService) failPayment(ctx context.Context, payment *Payment) {
	if err := payment.Fail(); err != nil {
		s.logf("mark payment %s failed: %v", payment.ID, err)
		return
	}
	if err := s.payments.Update(ctx, payment); err != nil {
		s.logf("persist failed payment %s: %v", payment.ID, err)
	}
}

// compensatePaymentFailure is the saga's whole compensation policy: the
// order snapshot is written back unchanged (still CREATED) and the
// listing stays SOLD. A stricter policy (release the listing, cancel
// the order) can replace this method without touching the rest of the
// saga.
func (s *PurchaseService) compensatePaymentFailure(ctx context.Context, order *Order) {
	if err := s.orders.Update(ctx, order); err != nil {
		s.logf("compensate order %s: %v", order.ID, err)
	}
}

// recordHistory appends the buyer and seller rows. Failures are logged
// and never roll back the completed order.
func (s *PurchaseService) recordHistory(ctx context.Context, order *Order) {
	purchase, err := NewPurchaseHistory(order.BuyerID, order.ID)
	if err == nil {
		_, err = s.history.Append(ctx, purchase)
	}
	if err != nil {
		s.logf("purchase history for order %s: %v", order.ID, err)
	}

	sale, err := NewSaleHistory(order.SellerID, order.ID)
	if err == nil {
		_, err = s.history.Append(ctx, sale)
	}
	if err != nil {
		s.logf("sale history for order %s: %v", order.ID, err)
	}
}

func (s *PurchaseService) publishCompleted(ctx context.Context, order *Order) {
	if s.events == nil || order.CompletedAt == nil {
		return
	}
	ev := PurchaseEvent{
		OrderID:     order.ID,
		ListingID:   order.ListingID,
		BuyerID:     order.BuyerID,
		SellerID:    order.SellerID,
		Amount:      order.FinalPrice.Amount,
		Currency:    order.FinalPrice.Currency,
		CompletedAt: *order.CompletedAt,
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logf("publish purchase event for order %s: %v", order.ID, err)
	}
}

// GetOrder returns the order if userID is its buyer or seller.
func (s *PurchaseService) GetOrder(ctx context.Context, userID, orderID string) (*Order, error) {
	if err := ValidateID("order id", orderID); err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != userID && order.SellerID != userID {
		return nil, ErrNotParticipant
	}
	return order, nil
}

// GetPaymentByOrder returns the payment attempt recorded for an order.
func (s *PurchaseService) GetPaymentByOrder(ctx context.Context, orderID string) (*Payment, error) {
	if err := ValidateID("order id", orderID); err != nil {
		return nil, err
	}
	return s.payments.FindByOrderID(ctx, orderID)
}

// ListUserHistory returns the user's purchase and sale entries.
func (s *PurchaseService) ListUserHistory(ctx context.Context, userID string) ([]*TransactionHistory, error) {
	if err := ValidateID("user id", userID); err != nil {
		return nil, err
	}
	return s.history.FindByUser(ctx, userID)
}
