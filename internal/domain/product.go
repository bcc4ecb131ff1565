package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID     int64           `json:"id"`
	SKU    string          `json:"sku"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
	Active bool            `json:"active"`
}

// Variant is a size or color option of a product. PriceAdjustment is added to
// the product's base price when the option is selected.
type Variant struct {
	ProductID       int64           `json:"product_id"`
	Name            string          `json:"name"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	Stock           int             `json:"stock"`
}

// Quote is the current price and availability of a product selection.
type Quote struct {
	Product   Product
	Size      string
	Color     string
	UnitPrice decimal.Decimal
	Available int
}

type ProductFilter struct {
	Search string
	Limit  int
	Offset int
}
