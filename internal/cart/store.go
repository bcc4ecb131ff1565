package cart

import (
	"context"
	"sync"

	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

// SessionStore persists one cart per browser session. Get returns nil, nil
// when the session has no cart yet.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Set(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps carts in process memory. Carts are lost on restart and
// are not shared between replicas.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]domain.Cart)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[sessionID]
	if !ok {
		return nil, nil
	}
	return cloneCart(c), nil
}

func (s *MemoryStore) Set(_ context.Context, sessionID string, c *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[sessionID] = *cloneCart(*c)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}

func cloneCart(c domain.Cart) *domain.Cart {
	out := &domain.Cart{UpdatedAt: c.UpdatedAt}
	if len(c.Items) > 0 {
		out.Items = make([]domain.CartItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}
