package rest

import (
	"time"

	"github.com/gin-gonic/gin"

	"bazaar/internal/observability"
	"bazaar/internal/realtime"
)

// RouterConfig tunes the shared request limiter. A zero value disables
// rate limiting.
type RouterConfig struct {
	RateLimitInterval time.Duration
	RateLimitBurst    int
}

// NewRouter wires the marketplace routes. hub may be nil to disable the
// WebSocket feed; metrics may be nil.
func NewRouter(h *Handler, hub *realtime.Hub, metrics *observability.Metrics, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	var limiter rateLimiter
	if cfg.RateLimitInterval > 0 && cfg.RateLimitBurst > 0 {
		limiter = newRequestLimiter(cfg.RateLimitInterval, cfg.RateLimitBurst, metrics.AddRateLimitWait)
	}
	router.Use(trackRequests(metrics, limiter))

	router.GET("/health", h.Health)

	api := router.Group("/api")
	{
		api.POST("/purchases", h.CreatePurchase)
		api.GET("/orders/:id", h.GetOrder)
		api.GET("/orders/:id/payment", h.GetOrderPayment)
		api.GET("/users/:id/history", h.GetUserHistory)
	}

	if hub != nil {
		router.GET("/ws/orders", OrderFeed(hub))
	}

	return router
}
