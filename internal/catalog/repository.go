package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

const defaultPageSize = 24

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sku, name, price, stock, active
		FROM products
		WHERE active
		  AND ($1::text = '' OR name ILIKE '%' || $1::text || '%' OR sku ILIKE '%' || $1::text || '%')
		ORDER BY id
		LIMIT $2 OFFSET $3
	`, filter.Search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.Stock, &p.Active); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, sku, name, price, stock, active
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.Stock, &p.Active)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return p, nil
}

func (r *ProductRepository) Sizes(ctx context.Context, productID int64) ([]domain.Variant, error) {
	return r.variants(ctx, `
		SELECT product_id, size, price_adjustment, stock
		FROM product_sizes
		WHERE product_id = $1
		ORDER BY id
	`, productID)
}

func (r *ProductRepository) Colors(ctx context.Context, productID int64) ([]domain.Variant, error) {
	return r.variants(ctx, `
		SELECT product_id, color, price_adjustment, stock
		FROM product_colors
		WHERE product_id = $1
		ORDER BY id
	`, productID)
}

func (r *ProductRepository) variants(ctx context.Context, query string, productID int64) ([]domain.Variant, error) {
	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	variants := []domain.Variant{}
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ProductID, &v.Name, &v.PriceAdjustment, &v.Stock); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return variants, nil
}

// Quote prices a product selection. It returns nil when the product is
// unknown or inactive, or when the requested size or color does not exist.
func (r *ProductRepository) Quote(ctx context.Context, productID int64, size, color string) (*domain.Quote, error) {
	p, err := r.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.Active {
		return nil, nil
	}

	q := &domain.Quote{
		Product:   *p,
		Size:      size,
		Color:     color,
		UnitPrice: p.Price,
		Available: p.Stock,
	}

	if size != "" {
		v, err := r.variant(ctx, `
			SELECT product_id, size, price_adjustment, stock
			FROM product_sizes
			WHERE product_id = $1 AND size = $2
		`, productID, size)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		applyVariant(q, v)
	}

	if color != "" {
		v, err := r.variant(ctx, `
			SELECT product_id, color, price_adjustment, stock
			FROM product_colors
			WHERE product_id = $1 AND color = $2
		`, productID, color)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		applyVariant(q, v)
	}

	return q, nil
}

func (r *ProductRepository) variant(ctx context.Context, query string, productID int64, name string) (*domain.Variant, error) {
	v := &domain.Variant{}
	err := r.db.QueryRowContext(ctx, query, productID, name).Scan(&v.ProductID, &v.Name, &v.PriceAdjustment, &v.Stock)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func applyVariant(q *domain.Quote, v *domain.Variant) {
	q.UnitPrice = q.UnitPrice.Add(v.PriceAdjustment)
	if v.Stock < q.Available {
		q.Available = v.Stock
	}
}

// DecrementStock takes quantity units of a product out of stock, but only
// while enough remain. It must run inside the caller's transaction.
func DecrementStock(ctx context.Context, exec Execer, productID int64, sku string, quantity int) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`, productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock for %s: %w", sku, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return &domain.StockConflictError{SKU: sku, Requested: quantity}
	}

	return nil
}

// DecrementVariantStock takes quantity units out of the selected size and
// color rows under the same guard as DecrementStock. Empty selections are
// skipped. It must run inside the caller's transaction.
func DecrementVariantStock(ctx context.Context, exec Execer, productID int64, sku, size, color string, quantity int) error {
	if size != "" {
		if err := decrementVariant(ctx, exec, `
			UPDATE product_sizes
			SET stock = stock - $3
			WHERE product_id = $1 AND size = $2 AND stock >= $3
		`, productID, sku, size, quantity); err != nil {
			return err
		}
	}

	if color != "" {
		if err := decrementVariant(ctx, exec, `
			UPDATE product_colors
			SET stock = stock - $3
			WHERE product_id = $1 AND color = $2 AND stock >= $3
		`, productID, sku, color, quantity); err != nil {
			return err
		}
	}

	return nil
}

func decrementVariant(ctx context.Context, exec Execer, query string, productID int64, sku, name string, quantity int) error {
	result, err := exec.ExecContext(ctx, query, productID, name, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock for %s/%s: %w", sku, name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return &domain.StockConflictError{SKU: sku, Requested: quantity}
	}

	return nil
}
