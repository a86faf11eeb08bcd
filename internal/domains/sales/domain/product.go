package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is a catalog item with its current quantity-on-hand.
type Product struct {
	ID             int64
	Name           string
	Category       string
	UnitPrice      decimal.Decimal
	QuantityOnHand int32
	// Version increases on every stock write and backs optimistic concurrency checks.
	Version int64
}

// CanFulfil reports whether the requested quantity is available.
func (p Product) CanFulfil(quantity int32) bool {
	return quantity > 0 && p.QuantityOnHand >= quantity
}

// Remaining returns the quantity left after removing the requested amount.
func (p Product) Remaining(quantity int32) (int32, error) {
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	remaining := p.QuantityOnHand - quantity
	if remaining < 0 {
		return 0, fmt.Errorf("%w: product %d has %d, requested %d", ErrNegativeStock, p.ID, p.QuantityOnHand, quantity)
	}
	return remaining, nil
}
