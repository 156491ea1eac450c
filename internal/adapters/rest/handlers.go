package rest

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bazaar/internal/market"
)

// PurchaseService is the application surface the HTTP layer exposes.
type PurchaseService interface {
	Purchase(ctx context.Context, buyerID, listingID string, method market.PaymentMethod) (*market.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*market.Order, error)
	GetPaymentByOrder(ctx context.Context, orderID string) (*market.Payment, error)
	ListUserHistory(ctx context.Context, userID string) ([]*market.TransactionHistory, error)
}

// Handler holds the HTTP handlers for the marketplace API.
type Handler struct {
	service PurchaseService
	logf    func(format string, args ...any)
}

// NewHandler constructs a Handler. logf may be nil.
func NewHandler(service PurchaseService, logf func(format string, args ...any)) *Handler {
	if logf == nil {
		logf = log.Printf
	}
	return &Handler{service: service, logf: logf}
}

// userIDHeader carries the authenticated caller's id. Authentication
// itself happens upstream; the API trusts the header.
const userIDHeader = "X-User-ID"

type purchaseRequest struct {
	BuyerID       string `json:"buyer_id" binding:"required"`
	ListingID     string `json:"listing_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

type moneyResponse struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type orderResponse struct {
	ID          string        `json:"id"`
	ListingID   string        `json:"listing_id"`
	BuyerID     string        `json:"buyer_id"`
	SellerID    string        `json:"seller_id"`
	FinalPrice  moneyResponse `json:"final_price"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	PaidAt      *time.Time    `json:"paid_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

type paymentResponse struct {
	ID          string        `json:"id"`
	OrderID     string        `json:"order_id"`
	Amount      moneyResponse `json:"amount"`
	Fee         moneyResponse `json:"fee"`
	Method      string        `json:"method"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	ProcessedAt *time.Time    `json:"processed_at,omitempty"`
}

type historyResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	OrderID   string    `json:"order_id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePurchase runs the purchase saga for the requested listing.
func (h *Handler) CreatePurchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	method, err := market.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		h.writeError(c, err)
		return
	}

	order, err := h.service.Purchase(c.Request.Context(), req.BuyerID, req.ListingID, method)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// GetOrder returns an order to its buyer or seller.
func (h *Handler) GetOrder(c *gin.Context) {
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing " + userIDHeader + " header"})
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// GetOrderPayment returns the payment recorded for an order, subject to
// the same participant check as the order itself.
func (h *Handler) GetOrderPayment(c *gin.Context) {
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing " + userIDHeader + " header"})
		return
	}

	orderID := c.Param("id")
	if _, err := h.service.GetOrder(c.Request.Context(), userID, orderID); err != nil {
		h.writeError(c, err)
		return
	}

	payment, err := h.service.GetPaymentByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

// GetUserHistory returns a user's purchase and sale entries.
func (h *Handler) GetUserHistory(c *gin.Context) {
	entries, err := h.service.ListUserHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]historyResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, historyResponse{
			ID:        entry.ID,
			UserID:    entry.UserID,
			OrderID:   entry.OrderID,
			Type:      string(entry.Type),
			CreatedAt: entry.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": out})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps domain errors onto HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	var validationErr *market.ValidationError
	var stateErr *market.InvalidStateError
	var declineErr *market.DeclineError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.Is(err, market.ErrListingNotFound),
		errors.Is(err, market.ErrOrderNotFound),
		errors.Is(err, market.ErrPaymentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, market.ErrNotParticipant):
		status = http.StatusForbidden
	case errors.Is(err, market.ErrListingUnavailable),
		errors.Is(err, market.ErrPaymentExists),
		errors.As(err, &stateErr):
		status = http.StatusConflict
	case errors.As(err, &declineErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.logf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func toOrderResponse(order *market.Order) orderResponse {
	return orderResponse{
		ID:        order.ID,
		ListingID: order.ListingID,
		BuyerID:   order.BuyerID,
		SellerID:  order.SellerID,
		FinalPrice: moneyResponse{
			Amount:   order.FinalPrice.Amount,
			Currency: order.FinalPrice.Currency,
		},
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt,
		PaidAt:      order.PaidAt,
		CompletedAt: order.CompletedAt,
	}
}

func toPaymentResponse(payment *market.Payment) paymentResponse {
	return paymentResponse{
		ID:      payment.ID,
		OrderID: payment.OrderID,
		Amount: moneyResponse{
			Amount:   payment.Amount.Amount,
			Currency: payment.Amount.Currency,
		},
		Fee: moneyResponse{
			Amount:   payment.Fee.Amount,
			Currency: payment.Fee.Currency,
		},
		Method:      string(payment.Method),
		Status:      string(payment.Status),
		CreatedAt:   payment.CreatedAt,
		ProcessedAt: payment.ProcessedAt,
	}
}
