package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/Zeinot/hajar-php-store-sub000/internal/cart"
	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

var (
	tracer = otel.Tracer("storefront/checkout")
	meter  = otel.Meter("storefront/checkout")

	ordersPlaced   metric.Int64Counter
	stockConflicts metric.Int64Counter
)

func init() {
	var err error
	if ordersPlaced, err = meter.Int64Counter("storefront.checkout.orders",
		metric.WithDescription("Orders placed through checkout"),
	); err != nil {
		otel.Handle(err)
	}
	if stockConflicts, err = meter.Int64Counter("storefront.checkout.stock_conflicts",
		metric.WithDescription("Checkouts aborted because stock ran out"),
	); err != nil {
		otel.Handle(err)
	}
}

// OrderCreator persists an order atomically with its items and stock
// decrements.
type OrderCreator interface {
	Create(ctx context.Context, order *domain.Order, actorID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, key, eventType string, event any) error
}

type Processor struct {
	orders    OrderCreator
	pricing   Pricing
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewProcessor builds a Processor. publisher may be nil.
func NewProcessor(orders OrderCreator, pricing Pricing, publisher EventPublisher, logger *slog.Logger) *Processor {
	return &Processor{
		orders:    orders,
		pricing:   pricing,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Quote prices the session's current cart without placing an order.
func (p *Processor) Quote(ctx context.Context, sess *cart.Session) (*domain.Cart, Breakdown, error) {
	c, err := sess.Cart(ctx)
	if err != nil {
		return nil, Breakdown{}, err
	}
	return c, p.pricing.Price(c), nil
}

// Checkout turns the session's cart into a pending order. The cart is cleared
// only after the order committed; on any failure it is left untouched.
func (p *Processor) Checkout(ctx context.Context, sess *cart.Session, customerID string, details domain.ShippingDetails) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout")
	defer span.End()

	order, err := p.checkout(ctx, sess, customerID, details)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID), attribute.Int("order.items", len(order.Items)))
	return order, nil
}

func (p *Processor) checkout(ctx context.Context, sess *cart.Session, customerID string, details domain.ShippingDetails) (*domain.Order, error) {
	c, err := sess.Cart(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	if verr := ValidateShipping(&details); verr != nil {
		return nil, verr
	}

	amounts := p.pricing.Price(c)
	order := &domain.Order{
		CustomerID:  customerID,
		Status:      domain.OrderStatusPending,
		Shipping:    details,
		Items:       make([]domain.OrderItem, 0, len(c.Items)),
		Subtotal:    amounts.Subtotal,
		ShippingFee: amounts.ShippingFee,
		Tax:         amounts.Tax,
		Total:       amounts.Total,
		CreatedAt:   p.now().UTC(),
	}
	for _, item := range c.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Size:      item.Size,
			Color:     item.Color,
		})
	}

	if err := p.orders.Create(ctx, order, customerID); err != nil {
		if errors.Is(err, domain.ErrStockConflict) {
			stockConflicts.Add(ctx, 1)
			p.logger.Warn("checkout aborted by stock conflict", "error", err, "customer_id", customerID)
			return nil, err
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	ordersPlaced.Add(ctx, 1)
	p.logger.Info("order placed", "order_id", order.ID, "customer_id", customerID, "total", order.Total.StringFixed(2))

	if err := sess.Clear(ctx); err != nil {
		p.logger.Error("failed to clear cart after checkout", "error", err, "order_id", order.ID)
	}

	if p.publisher != nil {
		event := domain.OrderPlacedEvent{
			OrderID:        order.ID,
			CustomerID:     order.CustomerID,
			Email:          order.Shipping.Email,
			Items:          order.Items,
			Total:          order.Total,
			TrackingNumber: order.TrackingNumber,
			Timestamp:      order.CreatedAt,
		}
		if err := p.publisher.Publish(ctx, order.ID, domain.EventOrderPlaced, event); err != nil {
			p.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}

	return order, nil
}
