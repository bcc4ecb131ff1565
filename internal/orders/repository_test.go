package orders

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

const testOrderID = "3b241101-e2bb-4255-8caf-4136c566a962"

func newTestOrder() *domain.Order {
	return &domain.Order{
		CustomerID: "cust-1",
		Status:     domain.OrderStatusPending,
		Shipping: domain.ShippingDetails{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555-0100",
			Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
		Items: []domain.OrderItem{
			{ProductID: 1, SKU: "DRESS-1", Name: "Dress", Quantity: 2, UnitPrice: decimal.RequireFromString("40.00")},
			{ProductID: 2, SKU: "X", Name: "Scarf", Quantity: 5, UnitPrice: decimal.RequireFromString("10.00"), Size: "M"},
		},
		Subtotal:    decimal.RequireFromString("130.00"),
		ShippingFee: decimal.RequireFromString("12.99"),
		Tax:         decimal.RequireFromString("9.10"),
		Total:       decimal.RequireFromString("152.09"),
		CreatedAt:   time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestOrderRepository_Create(t *testing.T) {
	t.Run("commits order, items, stock and history together", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).WithArgs(int64(1), 2).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).WithArgs(int64(2), 5).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE product_sizes")).WithArgs(int64(2), "M", 5).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET tracking_number")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_status_history")).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		order := newTestOrder()
		require.NoError(t, NewOrderRepository(db).Create(context.Background(), order, "cust-1"))

		assert.NotEmpty(t, order.ID)
		assert.Regexp(t, `^TRK-20260314-[0-9A-F]{8}$`, order.TrackingNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back everything on a stock conflict", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).WithArgs(int64(1), 2).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).WithArgs(int64(2), 5).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = NewOrderRepository(db).Create(context.Background(), newTestOrder(), "cust-1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrStockConflict))

		var conflict *domain.StockConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "X", conflict.SKU)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when a size runs out", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).WithArgs(int64(1), 2).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).WithArgs(int64(2), 5).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE product_sizes")).WithArgs(int64(2), "M", 5).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = NewOrderRepository(db).Create(context.Background(), newTestOrder(), "cust-1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrStockConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when an insert fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err = NewOrderRepository(db).Create(context.Background(), newTestOrder(), "cust-1")
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_Transition(t *testing.T) {
	selectStatus := regexp.QuoteMeta("SELECT status, customer_id, email")

	t.Run("same status writes nothing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(selectStatus).WithArgs(testOrderID).
			WillReturnRows(sqlmock.NewRows([]string{"status", "customer_id", "email"}).AddRow("pending", "cust-1", "ada@example.com"))
		mock.ExpectRollback()

		res, err := NewOrderRepository(db).Transition(context.Background(), testOrderID, domain.OrderStatusPending, "", "admin")
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("updates status and appends history", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(selectStatus).WithArgs(testOrderID).
			WillReturnRows(sqlmock.NewRows([]string{"status", "customer_id", "email"}).AddRow("pending", "cust-1", "ada@example.com"))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status")).
			WithArgs(testOrderID, domain.OrderStatusShipped, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_status_history")).
			WithArgs(testOrderID, domain.OrderStatusShipped, "on its way", "admin", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		res, err := NewOrderRepository(db).Transition(context.Background(), testOrderID, domain.OrderStatusShipped, "on its way", "admin")
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, domain.OrderStatusPending, res.From)
		assert.Equal(t, "ada@example.com", res.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing order is not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(selectStatus).WithArgs(testOrderID).
			WillReturnRows(sqlmock.NewRows([]string{"status", "customer_id", "email"}))
		mock.ExpectRollback()

		_, err = NewOrderRepository(db).Transition(context.Background(), testOrderID, domain.OrderStatusShipped, "", "admin")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed id is not found without touching the database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		_, err = NewOrderRepository(db).Transition(context.Background(), "42", domain.OrderStatusShipped, "", "admin")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
