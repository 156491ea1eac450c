package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"bazaar/internal/market"
)

// ListingCache keeps hot listing snapshots in Redis hashes and pushes
// completed purchases onto a stream for downstream consumers. Cache
// entries are advisory; Postgres stays the source of truth.
type ListingCache struct {
	client    PipelineClient
	stream    string
	keyPrefix string
	ttl       time.Duration
	maxLen    int64
}

// PipelineClient is the minimal client surface used by ListingCache.
type PipelineClient interface {
	Pipeline() Pipeliner
}

// Pipeliner is the subset of commands used within a pipeline.
type Pipeliner interface {
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exec(ctx context.Context) ([]redis.Cmder, error)
}

// NewListingCache constructs a Redis-backed listing cache.
func NewListingCache(client PipelineClient, stream string, ttl time.Duration, maxLen int64) *ListingCache {
	if stream == "" {
		stream = "purchase_events"
	}
	return &ListingCache{
		client:    client,
		stream:    stream,
		keyPrefix: "listing:",
		ttl:       ttl,
		maxLen:    maxLen,
	}
}

// Put writes a listing snapshot under its cache key.
func (c *ListingCache) Put(ctx context.Context, listing *market.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := c.keyPrefix + listing.ID

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"id":         listing.ID,
		"seller_id":  listing.SellerID,
		"price":      listing.Price.Amount,
		"currency":   listing.Price.Currency,
		"status":     string(listing.Status),
		"updated_at": listing.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate drops a listing snapshot from the cache.
func (c *ListingCache) Invalidate(ctx context.Context, listingID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, c.keyPrefix+listingID)
	_, err := pipe.Exec(ctx)
	return err
}

// Publish drops the sold listing's snapshot and appends the purchase to
// the stream in one round trip. Implements market.EventPublisher.
func (c *ListingCache) Publish(ctx context.Context, ev market.PurchaseEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, c.keyPrefix+ev.ListingID)

	args := &redis.XAddArgs{
		Stream: c.stream,
		Values: map[string]any{
			"order_id":     ev.OrderID,
			"listing_id":   ev.ListingID,
			"buyer_id":     ev.BuyerID,
			"seller_id":    ev.SellerID,
			"amount":       ev.Amount,
			"currency":     ev.Currency,
			"completed_at": ev.CompletedAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if c.maxLen > 0 {
		args.MaxLen = c.maxLen
		args.Approx = true
	}
	pipe.XAdd(ctx, args)

	_, err := pipe.Exec(ctx)
	return err
}
