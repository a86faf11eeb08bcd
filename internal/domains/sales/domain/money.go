package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places prices and totals are persisted with.
const MoneyScale int32 = 2

// RoundMoney rounds an amount to MoneyScale, half away from zero.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyScale)
}

// FormatMoney renders an amount with exactly MoneyScale decimals.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(MoneyScale)
}

// LineSubtotal computes unit price times quantity without floating point.
func LineSubtotal(unitPrice decimal.Decimal, quantity int32) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt32(quantity))
}
