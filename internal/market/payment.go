package market

import (
	"fmt"
	"time"
)

// PaymentStatus captures where a payment attempt is in its lifecycle.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentProcessed PaymentStatus = "processed"
	PaymentReleased  PaymentStatus = "released"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// PaymentMethod enumerates the accepted payment instruments.
type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "CREDIT_CARD"
	MethodDebitCard  PaymentMethod = "DEBIT_CARD"
	MethodPayPal     PaymentMethod = "PAYPAL"
)

// ParsePaymentMethod validates a wire-level method string.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch method := PaymentMethod(raw); method {
	case MethodCreditCard, MethodDebitCard, MethodPayPal:
		return method, nil
	}
	return "", &ValidationError{Field: "payment method", Reason: fmt.Sprintf("unknown method %q", raw)}
}

// defaultFeeRate is the platform cut applied when no explicit fee is supplied.
const defaultFeeRate = 0.1

// Payment records one attempt to collect funds for an order.
type Payment struct {
	ID          string // assigned by storage; empty before persistence
	OrderID     string
	Amount      Money
	Fee         Money
	Method      PaymentMethod
	Status      PaymentStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
	ReleasedAt  *time.Time
}

// NewPayment constructs a PENDING payment with the default fee.
func NewPayment(orderID string, amount float64, method PaymentMethod) (*Payment, error) {
	return NewPaymentWithFee(orderID, amount, amount*defaultFeeRate, method)
}

// NewPaymentWithFee constructs a PENDING payment with an explicit fee.
func NewPaymentWithFee(orderID string, amount, fee float64, method PaymentMethod) (*Payment, error) {
	if err := ValidateID("order id", orderID); err != nil {
		return nil, err
	}
	money, err := NewMoney(amount)
	if err != nil {
		return nil, err
	}
	feeMoney, err := NewMoney(fee)
	if err != nil {
		return nil, err
	}
	if _, err := ParsePaymentMethod(string(method)); err != nil {
		return nil, err
	}
	return &Payment{
		OrderID:   orderID,
		Amount:    money,
		Fee:       feeMoney,
		Method:    method,
		Status:    PaymentPending,
		CreatedAt: time.Now(),
	}, nil
}

// Process moves a PENDING payment to PROCESSED and stamps processedAt.
func (p *Payment) Process() error {
	if p.Status != PaymentPending {
		return &InvalidStateError{Entity: "payment", Op: "be processed", State: string(p.Status)}
	}
	now := time.Now()
	p.Status = PaymentProcessed
	p.ProcessedAt = &now
	return nil
}

// Fail moves a PENDING payment to FAILED.
func (p *Payment) Fail() error {
	if p.Status != PaymentPending {
		return &InvalidStateError{Entity: "payment", Op: "be failed", State: string(p.Status)}
	}
	p.Status = PaymentFailed
	return nil
}

// Release moves a PROCESSED payment to RELEASED and stamps releasedAt.
func (p *Payment) Release() error {
	if p.Status != PaymentProcessed {
		return &InvalidStateError{Entity: "payment", Op: "be released", State: string(p.Status)}
	}
	now := time.Now()
	p.Status = PaymentReleased
	p.ReleasedAt = &now
	return nil
}

// Refund moves a PROCESSED or RELEASED payment to REFUNDED.
func (p *Payment) Refund() error {
	if p.Status != PaymentProcessed && p.Status != PaymentReleased {
		return &InvalidStateError{Entity: "payment", Op: "be refunded", State: string(p.Status)}
	}
	p.Status = PaymentRefunded
	return nil
}
