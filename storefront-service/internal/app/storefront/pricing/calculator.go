package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/storefront-service/internal/app/storefront/entity"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidSnapshot = errors.New("pricing snapshot has negative rates")
)

// Totals - итоговые суммы заказа, округлённые до центов
type Totals struct {
	ItemsTotal    float64
	TaxTotal      float64
	ShippingTotal float64
	GrandTotal    float64
}

// Calculate считает суммы заказа по позициям и зафиксированному снимку настроек.
// Все промежуточные значения хранятся в decimal и округляются half-up до 2 знаков.
func Calculate(items []entity.OrderItem, snap entity.PricingSnapshot) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, ErrEmptyCart
	}
	if snap.TaxRate < 0 || snap.ShippingRate < 0 || snap.FreeShippingThreshold < 0 {
		return Totals{}, ErrInvalidSnapshot
	}

	sum := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			return Totals{}, fmt.Errorf("%w: %s", ErrInvalidQuantity, item.Slug)
		}
		if item.Price < 0 {
			return Totals{}, fmt.Errorf("%w: %s", ErrInvalidPrice, item.Slug)
		}
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	itemsTotal := round2(sum)

	taxTotal := round2(itemsTotal.Mul(decimal.NewFromFloat(snap.TaxRate)))

	shippingTotal := round2(decimal.NewFromFloat(snap.ShippingRate))
	if itemsTotal.GreaterThan(decimal.NewFromFloat(snap.FreeShippingThreshold)) {
		shippingTotal = decimal.Zero
	}

	grandTotal := round2(itemsTotal.Add(taxTotal).Add(shippingTotal))

	return Totals{
		ItemsTotal:    itemsTotal.InexactFloat64(),
		TaxTotal:      taxTotal.InexactFloat64(),
		ShippingTotal: shippingTotal.InexactFloat64(),
		GrandTotal:    grandTotal.InexactFloat64(),
	}, nil
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
