package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

// Pricing holds the store-wide shipping and tax rules.
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRate               decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromInt(150),
		FlatShippingFee:       decimal.RequireFromString("12.99"),
		TaxRate:               decimal.RequireFromString("0.07"),
	}
}

type Breakdown struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// Price computes the order amounts for a cart. Every amount is rounded to the
// cent before it is summed, so Total is exactly Subtotal+ShippingFee+Tax.
func (p Pricing) Price(c *domain.Cart) Breakdown {
	subtotal := c.Total().Round(2)

	shipping := p.FlatShippingFee.Round(2)
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(p.TaxRate).Round(2)

	return Breakdown{
		Subtotal:    subtotal,
		ShippingFee: shipping,
		Tax:         tax,
		Total:       subtotal.Add(shipping).Add(tax),
	}
}
