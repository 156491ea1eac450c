package realtime

import (
	"context"
	"encoding/json"

	"bazaar/internal/market"
)

// Broadcaster pushes messages to connected clients.
type Broadcaster interface {
	Broadcast(msg []byte)
}

// HubBroadcaster adapts a Hub to the Broadcaster interface using its
// non-blocking send.
type HubBroadcaster struct {
	Hub *Hub
}

func (b HubBroadcaster) Broadcast(msg []byte) {
	b.Hub.Send(msg)
}

// FanoutPublisher forwards purchase events to a storage publisher, then
// broadcasts them to live subscribers. A storage failure stops the
// fanout; a missing broadcaster does not.
type FanoutPublisher struct {
	storage     market.EventPublisher
	broadcaster Broadcaster
}

// NewFanoutPublisher constructs a publisher that fans out to storage and
// broadcaster. Either may be nil.
func NewFanoutPublisher(storage market.EventPublisher, broadcaster Broadcaster) *FanoutPublisher {
	return &FanoutPublisher{storage: storage, broadcaster: broadcaster}
}

// Publish writes the event to storage then broadcasts it.
func (p *FanoutPublisher) Publish(ctx context.Context, ev market.PurchaseEvent) error {
	if p.storage != nil {
		if err := p.storage.Publish(ctx, ev); err != nil {
			return err
		}
	}

	if p.broadcaster == nil {
		return nil
	}

	payload := struct {
		Type string `json:"type"`
		market.PurchaseEvent
	}{
		Type:          "purchase",
		PurchaseEvent: ev,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.broadcaster.Broadcast(data)
	return nil
}
