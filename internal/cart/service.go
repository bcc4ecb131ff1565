package cart

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

var (
	meter            = otel.Meter("storefront/cart")
	mutationsCounter metric.Int64Counter
)

func init() {
	var err error
	mutationsCounter, err = meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart mutations by operation"),
	)
	if err != nil {
		otel.Handle(err)
	}
}

// ProductLookup prices a product selection; nil means the selection is not
// purchasable.
type ProductLookup interface {
	Quote(ctx context.Context, productID int64, size, color string) (*domain.Quote, error)
}

type Service struct {
	store    SessionStore
	products ProductLookup
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store SessionStore, products ProductLookup, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		products: products,
		logger:   logger,
		now:      time.Now,
	}
}

// ForSession binds the service to one visitor's cart.
func (s *Service) ForSession(sessionID string) *Session {
	return &Session{id: sessionID, svc: s}
}

// Session is the cart of a single browser session. It is created per request
// and never shared between sessions.
type Session struct {
	id  string
	svc *Service
}

func (s *Session) ID() string {
	return s.id
}

// Cart returns the current cart, empty if the session has none yet.
func (s *Session) Cart(ctx context.Context) (*domain.Cart, error) {
	c, err := s.svc.store.Get(ctx, s.id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &domain.Cart{}
	}
	return c, nil
}

// Add puts quantity units of a product selection in the cart. Adding a
// selection already present increases its quantity. Quantities are capped at
// the available stock. It returns false when the product cannot be sold.
func (s *Session) Add(ctx context.Context, productID int64, quantity int, size, color string) (bool, error) {
	if quantity <= 0 {
		quantity = 1
	}

	q, err := s.svc.products.Quote(ctx, productID, size, color)
	if err != nil {
		return false, fmt.Errorf("quote product %d: %w", productID, err)
	}
	if q == nil || q.Available <= 0 {
		return false, nil
	}

	c, err := s.Cart(ctx)
	if err != nil {
		return false, err
	}

	key := domain.ItemKey(productID, size, color)
	if i, ok := c.Find(key); ok {
		c.Items[i].Quantity = min(c.Items[i].Quantity+quantity, q.Available)
		c.Items[i].UnitPrice = q.UnitPrice
	} else {
		item, err := domain.NewCartItem(*q, min(quantity, q.Available))
		if err != nil {
			return false, err
		}
		c.Items = append(c.Items, item)
	}

	if err := s.save(ctx, c); err != nil {
		return false, err
	}

	s.record(ctx, "add")
	s.svc.logger.Info("cart item added", "session_id", s.id, "item_key", key, "quantity", quantity)
	return true, nil
}

// Update sets the quantity of a cart line. A quantity of zero or less removes
// the line.
func (s *Session) Update(ctx context.Context, key string, quantity int) error {
	c, err := s.Cart(ctx)
	if err != nil {
		return err
	}

	i, ok := c.Find(key)
	if !ok {
		return fmt.Errorf("cart item %s: %w", key, domain.ErrNotFound)
	}

	if quantity <= 0 {
		c.Remove(key)
	} else {
		item := c.Items[i]
		q, err := s.svc.products.Quote(ctx, item.ProductID, item.Size, item.Color)
		if err != nil {
			return fmt.Errorf("quote product %d: %w", item.ProductID, err)
		}
		if q == nil || q.Available <= 0 {
			c.Remove(key)
		} else {
			c.Items[i].Quantity = min(quantity, q.Available)
			c.Items[i].UnitPrice = q.UnitPrice
		}
	}

	if err := s.save(ctx, c); err != nil {
		return err
	}

	s.record(ctx, "update")
	return nil
}

func (s *Session) Remove(ctx context.Context, key string) error {
	c, err := s.Cart(ctx)
	if err != nil {
		return err
	}

	if !c.Remove(key) {
		return nil
	}

	if err := s.save(ctx, c); err != nil {
		return err
	}

	s.record(ctx, "remove")
	return nil
}

func (s *Session) Clear(ctx context.Context) error {
	if err := s.svc.store.Delete(ctx, s.id); err != nil {
		return err
	}
	s.record(ctx, "clear")
	return nil
}

func (s *Session) Total(ctx context.Context) (decimal.Decimal, error) {
	c, err := s.Cart(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return c.Total(), nil
}

func (s *Session) save(ctx context.Context, c *domain.Cart) error {
	if c.IsEmpty() {
		return s.svc.store.Delete(ctx, s.id)
	}
	c.UpdatedAt = s.svc.now().UTC()
	return s.svc.store.Set(ctx, s.id, c)
}

func (s *Session) record(ctx context.Context, op string) {
	mutationsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}
