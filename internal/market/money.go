package market

import (
	"fmt"
	"regexp"
)

// DefaultCurrency is applied when no currency is supplied.
const DefaultCurrency = "USD"

// Money is a non-negative amount in a single currency.
type Money struct {
	Amount   float64
	Currency string
}

// NewMoney constructs a Money value in the default currency.
func NewMoney(amount float64) (Money, error) {
	return NewMoneyIn(amount, DefaultCurrency)
}

// NewMoneyIn constructs a Money value, rejecting negative amounts and
// empty currencies.
func NewMoneyIn(amount float64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, &ValidationError{Field: "amount", Reason: "amount cannot be negative"}
	}
	if currency == "" {
		return Money{}, &ValidationError{Field: "currency", Reason: "currency is required"}
	}
	return Money{Amount: amount, Currency: currency}, nil
}

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9-]{8,}$`)

// ValidateID checks the identifier format shared by all entities:
// at least eight characters of letters, digits and dashes.
func ValidateID(field, value string) error {
	if !idPattern.MatchString(value) {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a valid identifier", value)}
	}
	return nil
}
