package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderPlacedEvent struct {
	OrderID        string          `json:"order_id"`
	CustomerID     string          `json:"customer_id"`
	Email          string          `json:"email"`
	Items          []OrderItem     `json:"items"`
	Total          decimal.Decimal `json:"total"`
	TrackingNumber string          `json:"tracking_number"`
	Timestamp      time.Time       `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	OrderID    string      `json:"order_id"`
	CustomerID string      `json:"customer_id"`
	Email      string      `json:"email"`
	From       OrderStatus `json:"from"`
	To         OrderStatus `json:"to"`
	Notes      string      `json:"notes,omitempty"`
	ActorID    string      `json:"actor_id"`
	Timestamp  time.Time   `json:"timestamp"`
}
