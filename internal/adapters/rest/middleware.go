package rest

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"bazaar/internal/observability"
)

type rateLimiter interface {
	Wait(ctx context.Context) error
}

// requestLimiter is a token bucket shared by every route.
type requestLimiter struct {
	mu     sync.Mutex
	rate   time.Duration
	burst  int
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
	onWait func(time.Duration)

	tokens int
	last   time.Time
}

func newRequestLimiter(rate time.Duration, burst int, onWait func(time.Duration)) *requestLimiter {
	now := time.Now
	limiter := &requestLimiter{
		rate:   rate,
		burst:  burst,
		now:    now,
		sleep:  sleepWithContext,
		onWait: onWait,
	}
	limiter.tokens = burst
	limiter.last = now()
	return limiter
}

func (r *requestLimiter) Wait(ctx context.Context) error {
	if r == nil || r.rate <= 0 || r.burst <= 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.mu.Lock()
		now := r.now()
		r.refill(now)
		if r.tokens > 0 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		wait := r.rate - now.Sub(r.last)
		r.mu.Unlock()
		if wait <= 0 {
			continue
		}
		if r.onWait != nil {
			r.onWait(wait)
		}
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (r *requestLimiter) refill(now time.Time) {
	if r.rate <= 0 {
		r.tokens = r.burst
		r.last = now
		return
	}
	elapsed := now.Sub(r.last)
	if elapsed < r.rate {
		return
	}
	add := int(elapsed / r.rate)
	if add <= 0 {
		return
	}
	r.tokens += add
	if r.tokens > r.burst {
		r.tokens = r.burst
	}
	r.last = r.last.Add(time.Duration(add) * r.rate)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// trackRequests records per-route counters and latency, and optionally
// throttles through the shared limiter.
func trackRequests(metrics *observability.Metrics, limiter rateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		operation := c.Request.Method + " " + c.FullPath()
		span := metrics.Start(operation)

		if limiter != nil {
			if err := limiter.Wait(c.Request.Context()); err != nil {
				span.End(err)
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "server busy"})
				return
			}
		}

		c.Next()

		var err error
		if len(c.Errors) > 0 || c.Writer.Status() >= 500 {
			err = errRequestFailed
		}
		span.End(err)
	}
}

// errRequestFailed flags a failed request to metrics; it is never
// returned to callers.
var errRequestFailed = errors.New("request failed")
