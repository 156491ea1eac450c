package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/observability"
)

func TestRequestLimiter_AllowsBurstThenWaits(t *testing.T) {
	t.Parallel()

	current := time.Unix(0, 0)
	var slept []time.Duration
	var waits []time.Duration

	limiter := newRequestLimiter(100*time.Millisecond, 2, func(d time.Duration) {
		waits = append(waits, d)
	})
	limiter.now = func() time.Time { return current }
	limiter.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		current = current.Add(d)
		return nil
	}

	ctx := context.Background()
	require.NoError(t, limiter.Wait(ctx))
	require.NoError(t, limiter.Wait(ctx))
	assert.Empty(t, slept, "burst should not sleep")

	require.NoError(t, limiter.Wait(ctx))
	assert.NotEmpty(t, slept, "exhausted bucket should sleep")
	assert.Equal(t, slept, waits, "waits should be reported")
}

func TestRequestLimiter_RefillsOverTime(t *testing.T) {
	t.Parallel()

	current := time.Unix(0, 0)
	limiter := newRequestLimiter(100*time.Millisecond, 1, nil)
	limiter.now = func() time.Time { return current }
	limiter.sleep = func(context.Context, time.Duration) error {
		t.Fatalf("should not sleep after refill")
		return nil
	}

	require.NoError(t, limiter.Wait(context.Background()))

	current = current.Add(250 * time.Millisecond)
	require.NoError(t, limiter.Wait(context.Background()))
}

func TestRequestLimiter_StopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	limiter := newRequestLimiter(time.Second, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequestLimiter_NilAndDisabled(t *testing.T) {
	t.Parallel()

	var limiter *requestLimiter
	assert.NoError(t, limiter.Wait(context.Background()))

	disabled := newRequestLimiter(0, 0, nil)
	assert.NoError(t, disabled.Wait(context.Background()))
}

type rejectingLimiter struct{}

func (rejectingLimiter) Wait(context.Context) error { return errors.New("bucket empty") }

func TestTrackRequests_RejectsWhenLimiterFails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	metrics := observability.NewMetrics()
	router := gin.New()
	router.Use(trackRequests(metrics, rejectingLimiter{}))
	handled := false
	router.GET("/health", func(c *gin.Context) {
		handled = true
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, handled, "handler should not run when throttled")

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Operations["GET /health"].Errors)
}

func TestTrackRequests_RecordsOperations(t *testing.T) {
	gin.SetMode(gin.TestMode)

	metrics := observability.NewMetrics()
	router := gin.New()
	router.Use(trackRequests(metrics, nil))
	router.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/orders/order-0001", "/orders/order-0002", "/boom"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.Operations["GET /orders/:id"].Count)
	assert.Equal(t, int64(0), snap.Operations["GET /orders/:id"].Errors)
	assert.Equal(t, int64(1), snap.Operations["GET /boom"].Errors)
	assert.Equal(t, int64(3), snap.TotalRequests)
}
