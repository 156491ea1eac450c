package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bazaar/internal/market"
)

type spyStorage struct {
	events []market.PurchaseEvent
	err    error
}

func (s *spyStorage) Publish(_ context.Context, ev market.PurchaseEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

type spyBroadcaster struct {
	messages [][]byte
}

func (s *spyBroadcaster) Broadcast(msg []byte) {
	s.messages = append(s.messages, msg)
}

func TestFanoutPublisher_StoresThenBroadcasts(t *testing.T) {
	t.Parallel()

	storage := &spyStorage{}
	broadcaster := &spyBroadcaster{}
	pub := NewFanoutPublisher(storage, broadcaster)

	ev := market.PurchaseEvent{
		OrderID:     "order-0001",
		ListingID:   "listing-01",
		BuyerID:     "buyer-001",
		SellerID:    "seller-001",
		Amount:      25,
		Currency:    "USD",
		CompletedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := pub.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(storage.events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(storage.events))
	}
	if len(broadcaster.messages) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(broadcaster.messages))
	}

	var payload struct {
		Type    string `json:"type"`
		OrderID string `json:"order_id"`
		Amount  float64 `json:"amount"`
	}
	if err := json.Unmarshal(broadcaster.messages[0], &payload); err != nil {
		t.Fatalf("unmarshal broadcast: %v", err)
	}
	if payload.Type != "purchase" {
		t.Fatalf("expected type purchase, got %q", payload.Type)
	}
	if payload.OrderID != "order-0001" {
		t.Fatalf("unexpected order id %q", payload.OrderID)
	}
}

func TestFanoutPublisher_StorageFailureStopsFanout(t *testing.T) {
	t.Parallel()

	storage := &spyStorage{err: errors.New("stream down")}
	broadcaster := &spyBroadcaster{}
	pub := NewFanoutPublisher(storage, broadcaster)

	err := pub.Publish(context.Background(), market.PurchaseEvent{OrderID: "order-0001"})
	if err == nil {
		t.Fatalf("expected storage error")
	}
	if len(broadcaster.messages) != 0 {
		t.Fatalf("expected no broadcast after storage failure")
	}
}

func TestFanoutPublisher_NilStorage(t *testing.T) {
	t.Parallel()

	broadcaster := &spyBroadcaster{}
	pub := NewFanoutPublisher(nil, broadcaster)

	if err := pub.Publish(context.Background(), market.PurchaseEvent{OrderID: "order-0001"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(broadcaster.messages) != 1 {
		t.Fatalf("expected broadcast without storage, got %d", len(broadcaster.messages))
	}
}

func TestFanoutPublisher_NilBroadcaster(t *testing.T) {
	t.Parallel()

	storage := &spyStorage{}
	pub := NewFanoutPublisher(storage, nil)

	if err := pub.Publish(context.Background(), market.PurchaseEvent{OrderID: "order-0001"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(storage.events) != 1 {
		t.Fatalf("expected stored event, got %d", len(storage.events))
	}
}
