package market

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// NewMemoryListingStore constructs an in-memory listing repository.
func NewMemoryListingStore() *MemoryListingStore {
	return &MemoryListingStore{listings: make(map[string]*Listing)}
}

// MemoryListingStore keeps listings in a map. MarkSold performs the same
// conditional swap as the Postgres store, under the store mutex.
type MemoryListingStore struct {
	mu       sync.Mutex
	listings map[string]*Listing
}

func (s *MemoryListingStore) FindByID(ctx context.Context, id string) (*Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	copied := *listing
	return &copied, nil
}

func (s *MemoryListingStore) Create(ctx context.Context, listing *Listing) (*Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *listing
	s.listings[listing.ID] = &copied
	out := copied
	return &out, nil
}

func (s *MemoryListingStore) MarkSold(ctx context.Context, id string) (*Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	if listing.Status != ListingAvailable {
		return nil, ErrListingUnavailable
	}
	if err := listing.MarkSold(); err != nil {
		return nil, err
	}
	copied := *listing
	return &copied, nil
}

func (s *MemoryListingStore) Release(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[id]
	if !ok {
		return ErrListingNotFound
	}
	listing.Status = ListingAvailable
	return nil
}

// NewMemoryOrderStore constructs an in-memory order repository.
func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[string]*Order)}
}

// MemoryOrderStore keeps orders in a map, assigning uuid ids on Save.
type MemoryOrderStore struct {
	mu      sync.Mutex
	orders  map[string]*Order
	updates int
}

func (s *MemoryOrderStore) Save(ctx context.Context, order *Order) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *order
	if copied.ID == "" {
		copied.ID = uuid.NewString()
	}
	s.orders[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (s *MemoryOrderStore) Update(ctx context.Context, order *Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; !ok {
		return ErrOrderNotFound
	}
	copied := *order
	s.orders[order.ID] = &copied
	s.updates++
	return nil
}

func (s *MemoryOrderStore) FindByID(ctx context.Context, id string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *MemoryOrderStore) FindByUser(ctx context.Context, userID string) ([]*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Order
	for _, order := range s.orders {
		if order.BuyerID == userID || order.SellerID == userID {
			copied := *order
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Updates returns how many Update calls were made (for testing/inspection).
func (s *MemoryOrderStore) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

// NewMemoryPaymentStore constructs an in-memory payment repository.
func NewMemoryPaymentStore() *MemoryPaymentStore {
	return &MemoryPaymentStore{
		payments: make(map[string]*Payment),
		byOrder:  make(map[string]string),
	}
}

// MemoryPaymentStore keeps payments in a map, enforcing one payment per
// order like the Postgres store's unique constraint.
type MemoryPaymentStore struct {
	mu       sync.Mutex
	payments map[string]*Payment
	byOrder  map[string]string
}

func (s *MemoryPaymentStore) Save(ctx context.Context, payment *Payment) (*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byOrder[payment.OrderID]; ok {
		return nil, ErrPaymentExists
	}
	copied := *payment
	if copied.ID == "" {
		copied.ID = uuid.NewString()
	}
	s.payments[copied.ID] = &copied
	s.byOrder[copied.OrderID] = copied.ID
	out := copied
	return &out, nil
}

func (s *MemoryPaymentStore) Update(ctx context.Context, payment *Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[payment.ID]; !ok {
		return ErrPaymentNotFound
	}
	copied := *payment
	s.payments[payment.ID] = &copied
	return nil
}

func (s *MemoryPaymentStore) FindByID(ctx context.Context, id string) (*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	copied := *payment
	return &copied, nil
}

func (s *MemoryPaymentStore) FindByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byOrder[orderID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	copied := *s.payments[id]
	return &copied, nil
}

// NewMemoryHistoryStore constructs an in-memory history repository.
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{}
}

// MemoryHistoryStore keeps transaction history in an append-only slice.
type MemoryHistoryStore struct {
	mu      sync.Mutex
	entries []*TransactionHistory
}

func (s *MemoryHistoryStore) Append(ctx context.Context, history *TransactionHistory) (*TransactionHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *history
	if copied.ID == "" {
		copied.ID = uuid.NewString()
	}
	s.entries = append(s.entries, &copied)
	out := copied
	return &out, nil
}

func (s *MemoryHistoryStore) FindByUser(ctx context.Context, userID string) ([]*TransactionHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*TransactionHistory
	for _, entry := range s.entries {
		if entry.UserID == userID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	return out, nil
}

// All returns every entry appended so far (for testing/inspection).
func (s *MemoryHistoryStore) All() []*TransactionHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*TransactionHistory, len(s.entries))
	copy(out, s.entries)
	return out
}
