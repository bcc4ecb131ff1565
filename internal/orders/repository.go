package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Zeinot/hajar-php-store-sub000/internal/catalog"
	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

const orderColumns = `
	id, customer_id, status, first_name, last_name, email, phone, address,
	city, state, postal_code, country, notes, subtotal, shipping_fee, tax,
	total, COALESCE(tracking_number, ''), created_at, updated_at`

// TransitionResult describes the outcome of a status change request.
type TransitionResult struct {
	OrderID    string
	CustomerID string
	Email      string
	From       domain.OrderStatus
	To         domain.OrderStatus
	Changed    bool
}

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists an order, its items, the stock decrements and the initial
// history entry in one transaction. A stock conflict on any item rolls back
// everything.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order, actorID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()
	order.UpdatedAt = order.CreatedAt

	s := order.Shipping
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_id, status, first_name, last_name, email, phone, address,
			city, state, postal_code, country, notes, subtotal, shipping_fee, tax,
			total, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
	`, order.ID, order.CustomerID, order.Status, s.FirstName, s.LastName, s.Email, s.Phone, s.Address,
		s.City, s.State, s.PostalCode, s.Country, s.Notes, order.Subtotal, order.ShippingFee, order.Tax,
		order.Total, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_sku, product_name, quantity, unit_price, size, color)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, order.ID, item.ProductID, item.SKU, item.Name, item.Quantity, item.UnitPrice,
			nullString(item.Size), nullString(item.Color))
		if err != nil {
			return fmt.Errorf("insert order item %s: %w", item.SKU, err)
		}

		if err := catalog.DecrementStock(ctx, tx, item.ProductID, item.SKU, item.Quantity); err != nil {
			return err
		}
		if err := catalog.DecrementVariantStock(ctx, tx, item.ProductID, item.SKU, item.Size, item.Color, item.Quantity); err != nil {
			return err
		}
	}

	order.TrackingNumber = domain.TrackingNumber(order.ID, order.CreatedAt)
	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET tracking_number = $2
		WHERE id = $1
	`, order.ID, order.TrackingNumber)
	if err != nil {
		return fmt.Errorf("attach tracking number: %w", err)
	}

	if err := insertHistory(ctx, tx, order.ID, order.Status, "Order placed", actorID, order.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, product_sku, product_name, quantity, unit_price, size, color
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// List returns orders newest first. An empty customerID lists every order.
func (r *OrderRepository) List(ctx context.Context, customerID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::text = '' OR customer_id = $1::text)
		ORDER BY created_at DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, product_sku, product_name, quantity, unit_price, size, color
		FROM order_items
		WHERE order_id::text = ANY($1)
		ORDER BY id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		var size, color sql.NullString
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.SKU, &item.Name, &item.Quantity, &item.UnitPrice, &size, &color); err != nil {
			return nil, err
		}
		item.Size, item.Color = size.String, color.String
		if order, ok := orderMap[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// Transition moves an order to status and records the change. Requesting the
// current status changes nothing and writes no history.
func (r *OrderRepository) Transition(ctx context.Context, orderID string, status domain.OrderStatus, notes, actorID string) (*TransitionResult, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res := &TransitionResult{OrderID: orderID, To: status}
	err = tx.QueryRowContext(ctx, `
		SELECT status, customer_id, email
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID).Scan(&res.From, &res.CustomerID, &res.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
		}
		return nil, err
	}

	if res.From == status {
		return res, nil
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = $3
		WHERE id = $1
	`, orderID, status, now)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if err := insertHistory(ctx, tx, orderID, status, notes, actorID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	res.Changed = true
	return res, nil
}

func (r *OrderRepository) History(ctx context.Context, orderID string) ([]domain.StatusChange, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return []domain.StatusChange{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, status, notes, actor_id, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	history := []domain.StatusChange{}
	for rows.Next() {
		var c domain.StatusChange
		if err := rows.Scan(&c.OrderID, &c.Status, &c.Notes, &c.ActorID, &c.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return history, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, orderID string, status domain.OrderStatus, notes, actorID string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, notes, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, orderID, status, notes, actorID, at)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	o := &domain.Order{}
	s := &o.Shipping
	err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &s.FirstName, &s.LastName, &s.Email, &s.Phone, &s.Address,
		&s.City, &s.State, &s.PostalCode, &s.Country, &s.Notes, &o.Subtotal, &o.ShippingFee, &o.Tax,
		&o.Total, &o.TrackingNumber, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func scanItem(row rowScanner) (domain.OrderItem, error) {
	var item domain.OrderItem
	var size, color sql.NullString
	if err := row.Scan(&item.ProductID, &item.SKU, &item.Name, &item.Quantity, &item.UnitPrice, &size, &color); err != nil {
		return item, err
	}
	item.Size, item.Color = size.String, color.String
	return item, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
