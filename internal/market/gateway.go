package market

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ProcessResult is the gateway's answer to a charge attempt. A false
// Success with a Reason is a structured decline, distinct from a
// transport error.
type ProcessResult struct {
	Success       bool
	TransactionID string
	Reason        string
}

// PaymentGateway collects and refunds funds for orders. The saga treats
// it as a black box: it may succeed, return a structured failure, or
// error outright.
type PaymentGateway interface {
	ProcessPayment(ctx context.Context, amount float64, method PaymentMethod, metadata map[string]string) (ProcessResult, error)
	RefundPayment(ctx context.Context, transactionID string) (bool, error)
}

// StaticGateway approves every charge. It stands in for a real processor
// in development and tests.
type StaticGateway struct {
	mu      sync.Mutex
	charges []float64
	refunds []string
}

// NewStaticGateway constructs an always-approving gateway.
func NewStaticGateway() *StaticGateway {
	return &StaticGateway{}
}

func (g *StaticGateway) ProcessPayment(ctx context.Context, amount float64, method PaymentMethod, metadata map[string]string) (ProcessResult, error) {
	if err := ctx.Err(); err != nil {
		return ProcessResult{}, err
	}
	g.mu.Lock()
	g.charges = append(g.charges, amount)
	g.mu.Unlock()
	return ProcessResult{
		Success:       true,
		TransactionID: fmt.Sprintf("tx-%d", time.Now().UnixNano()),
	}, nil
}

func (g *StaticGateway) RefundPayment(ctx context.Context, transactionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	g.mu.Lock()
	g.refunds = append(g.refunds, transactionID)
	g.mu.Unlock()
	return true, nil
}

// Charges returns the amounts charged so far (for testing/inspection).
func (g *StaticGateway) Charges() []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]float64, len(g.charges))
	copy(out, g.charges)
	return out
}
