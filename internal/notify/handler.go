// Package notify turns order events into customer emails.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
	"github.com/Zeinot/hajar-php-store-sub000/internal/email"
	"github.com/Zeinot/hajar-php-store-sub000/internal/messaging"
)

type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

type NotificationHandler struct {
	mailer Mailer
	logger *slog.Logger
}

func NewNotificationHandler(mailer Mailer, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		mailer: mailer,
		logger: logger,
	}
}

// Handle sends the email matching an order event. Events that cannot be
// decoded or carry no recipient are logged and dropped; a failed send is
// returned so the message is redelivered.
func (h *NotificationHandler) Handle(ctx context.Context, d messaging.Delivery) error {
	var msg email.Message

	switch d.EventType {
	case domain.EventOrderPlaced:
		var event domain.OrderPlacedEvent
		if err := json.Unmarshal(d.Payload, &event); err != nil {
			h.logger.Error("dropping undecodable event", "error", err, "event_type", d.EventType, "key", d.Key)
			return nil
		}
		h.logger.Info("processing order placed event", "order_id", event.OrderID, "customer_id", event.CustomerID)
		msg = confirmationEmail(event)

	case domain.EventOrderStatusChanged:
		var event domain.OrderStatusChangedEvent
		if err := json.Unmarshal(d.Payload, &event); err != nil {
			h.logger.Error("dropping undecodable event", "error", err, "event_type", d.EventType, "key", d.Key)
			return nil
		}
		h.logger.Info("processing order status event", "order_id", event.OrderID, "from", event.From, "to", event.To)
		msg = statusEmail(event)

	default:
		h.logger.Warn("ignoring unknown event type", "event_type", d.EventType, "key", d.Key)
		return nil
	}

	if msg.To == "" {
		h.logger.Warn("order event has no recipient", "event_type", d.EventType, "key", d.Key)
		return nil
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("failed to send email", "error", err, "event_type", d.EventType, "key", d.Key)
		return fmt.Errorf("send %s email: %w", d.EventType, err)
	}

	return nil
}

func confirmationEmail(event domain.OrderPlacedEvent) email.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", event.OrderID)
	for _, item := range event.Items {
		fmt.Fprintf(&b, "%d x %s%s  %s\n", item.Quantity, item.Name, variantLabel(item), item.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", event.Total.StringFixed(2))
	if event.TrackingNumber != "" {
		fmt.Fprintf(&b, "Tracking number: %s\n", event.TrackingNumber)
	}

	return email.Message{
		To:      event.Email,
		Subject: "Order confirmation " + event.OrderID,
		Body:    b.String(),
	}
}

func statusEmail(event domain.OrderStatusChangedEvent) email.Message {
	body := fmt.Sprintf("Your order %s is now %s.", event.OrderID, event.To)
	if event.Notes != "" {
		body += "\n\n" + event.Notes
	}
	return email.Message{
		To:      event.Email,
		Subject: fmt.Sprintf("Order %s: %s", event.OrderID, event.To),
		Body:    body,
	}
}

func variantLabel(item domain.OrderItem) string {
	var parts []string
	for _, v := range []string{item.Size, item.Color} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
