package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	Key       string          `json:"key"`
	ProductID int64           `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}

var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// ItemKey identifies a cart line by product and selected variant. Separators
// inside variant names are percent-escaped so distinct selections never share
// a key.
func ItemKey(productID int64, size, color string) string {
	return fmt.Sprintf("%d:%s:%s", productID, keyEscaper.Replace(size), keyEscaper.Replace(color))
}

func NewCartItem(q Quote, quantity int) (CartItem, error) {
	if quantity < 1 {
		return CartItem{}, fmt.Errorf("cart item quantity %d: must be at least 1", quantity)
	}
	if q.UnitPrice.IsNegative() {
		return CartItem{}, fmt.Errorf("cart item price %s: must not be negative", q.UnitPrice)
	}
	return CartItem{
		Key:       ItemKey(q.Product.ID, q.Size, q.Color),
		ProductID: q.Product.ID,
		SKU:       q.Product.SKU,
		Name:      q.Product.Name,
		Quantity:  quantity,
		UnitPrice: q.UnitPrice,
		Size:      q.Size,
		Color:     q.Color,
	}, nil
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) Find(key string) (int, bool) {
	for i := range c.Items {
		if c.Items[i].Key == key {
			return i, true
		}
	}
	return -1, false
}

func (c *Cart) Remove(key string) bool {
	i, ok := c.Find(key)
	if !ok {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Count is the number of units in the cart, not the number of lines.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
