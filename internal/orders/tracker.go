package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

var (
	meter              = otel.Meter("storefront/orders")
	transitionsCounter metric.Int64Counter
)

func init() {
	var err error
	transitionsCounter, err = meter.Int64Counter("storefront.order.transitions",
		metric.WithDescription("Order status transitions by target status"),
	)
	if err != nil {
		otel.Handle(err)
	}
}

type StatusStore interface {
	Transition(ctx context.Context, orderID string, status domain.OrderStatus, notes, actorID string) (*TransitionResult, error)
}

// EventPublisher delivers domain events after their transaction committed.
type EventPublisher interface {
	Publish(ctx context.Context, key, eventType string, event any) error
}

type BulkResult struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type Tracker struct {
	store     StatusStore
	publisher EventPublisher
	logger    *slog.Logger
}

// NewTracker builds a Tracker. publisher may be nil.
func NewTracker(store StatusStore, publisher EventPublisher, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Transition moves one order to status. Moving an order to the status it
// already has succeeds without recording anything.
func (t *Tracker) Transition(ctx context.Context, orderID string, status domain.OrderStatus, notes, actorID string) (*TransitionResult, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	res, err := t.store.Transition(ctx, orderID, status, notes, actorID)
	if err != nil {
		return nil, err
	}

	if !res.Changed {
		return res, nil
	}

	transitionsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
	t.logger.Info("order status changed", "order_id", orderID, "from", res.From, "to", res.To, "actor_id", actorID)

	if t.publisher != nil {
		event := domain.OrderStatusChangedEvent{
			OrderID:    res.OrderID,
			CustomerID: res.CustomerID,
			Email:      res.Email,
			From:       res.From,
			To:         res.To,
			Notes:      notes,
			ActorID:    actorID,
			Timestamp:  time.Now().UTC(),
		}
		if err := t.publisher.Publish(ctx, res.OrderID, domain.EventOrderStatusChanged, event); err != nil {
			t.logger.Error("failed to publish status changed event", "error", err, "order_id", orderID)
		}
	}

	return res, nil
}

// BulkTransition applies Transition to every id. Orders that fail are
// skipped and counted; only an invalid status aborts the batch.
func (t *Tracker) BulkTransition(ctx context.Context, orderIDs []string, status domain.OrderStatus, notes, actorID string) (BulkResult, error) {
	result := BulkResult{Requested: len(orderIDs)}
	if !status.Valid() {
		return result, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	for _, id := range orderIDs {
		if _, err := t.Transition(ctx, id, status, notes, actorID); err != nil {
			t.logger.Warn("bulk status update skipped order", "error", err, "order_id", id)
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	t.logger.Info("bulk status update finished", "status", status, "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}
