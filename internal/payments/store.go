package payments

import (
	"context"
	"sync"
	"time"
)

// OrderStore persists payment orders. Settle must be conditional so each
// order is consumed exactly once even under callback replays.
type OrderStore interface {
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, orderID string) (*Order, error)

	// Settle flips created → settled and records the gateway payment ref.
	// Returns false when the order was already consumed.
	Settle(ctx context.Context, orderID, paymentRef string) (bool, error)

	// FlagReconciliation marks a verified-but-unappliable payment for manual
	// follow-up.
	FlagReconciliation(ctx context.Context, orderID, paymentRef string) error
}

// InMemoryOrderStore keeps orders in process memory.
type InMemoryOrderStore struct {
	mu     sync.Mutex
	orders map[string]*Order
}

// NewInMemoryOrderStore creates an empty order store.
func NewInMemoryOrderStore() *InMemoryOrderStore {
	return &InMemoryOrderStore{orders: make(map[string]*Order)}
}

// Insert stores a new order.
func (s *InMemoryOrderStore) Insert(ctx context.Context, order *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *order
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now().UTC()
	}
	s.orders[copied.ID] = &copied
	return nil
}

// Get returns a copy of the stored order.
func (s *InMemoryOrderStore) Get(ctx context.Context, orderID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

// Settle consumes the order exactly once.
func (s *InMemoryOrderStore) Settle(ctx context.Context, orderID, paymentRef string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return false, ErrOrderNotFound
	}
	if order.Status != OrderCreated {
		return false, nil
	}
	order.Status = OrderSettled
	order.PaymentRef = paymentRef
	return true, nil
}

// FlagReconciliation marks the order for manual follow-up.
func (s *InMemoryOrderStore) FlagReconciliation(ctx context.Context, orderID, paymentRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	order.Status = OrderReconcile
	order.PaymentRef = paymentRef
	return nil
}
