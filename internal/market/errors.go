package market

import (
	"errors"
	"fmt"
)

var (
	// ErrListingNotFound signals a lookup for an unknown listing.
	ErrListingNotFound = errors.New("listing not found")

	// ErrOrderNotFound signals a lookup for an unknown order.
	ErrOrderNotFound = errors.New("order not found")

	// ErrPaymentNotFound signals a lookup for an unknown payment.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrListingUnavailable signals the listing is not AVAILABLE, either on
	// the initial read or because a concurrent purchase won the conditional
	// status swap.
	ErrListingUnavailable = errors.New("listing is not available")

	// ErrPaymentExists signals a second payment write for the same order.
	ErrPaymentExists = errors.New("payment already recorded for order")

	// ErrNotParticipant signals the caller is neither buyer nor seller of
	// the requested order.
	ErrNotParticipant = errors.New("user is not a party to this order")
)

// ValidationError reports a malformed identifier or money value at
// construction, before any persistence call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidStateError reports an entity mutator invoked outside its legal
// source state.
type InvalidStateError struct {
	Entity string
	Op     string
	State  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s cannot %s while %s", e.Entity, e.Op, e.State)
}

// DeclineError carries the gateway's reported reason for a declined
// charge. Its message is the reason itself so callers see exactly what
// the gateway said.
type DeclineError struct {
	Reason string
}

func (e *DeclineError) Error() string {
	if e.Reason == "" {
		return "payment processing failed"
	}
	return e.Reason
}
