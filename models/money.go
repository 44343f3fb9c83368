package models

import "github.com/shopspring/decimal"

// Monetary amounts are fixed-point decimals with two fractional digits,
// stored as decimal(10,2) columns. Never use floats for money.

// NormalizeAmount rounds an amount to two decimal places.
func NormalizeAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// LineTotal returns quantity × unitPrice at two decimal places.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity)).Mul(NormalizeAmount(unitPrice))
}

// SumLineTotals returns the sum of all item line totals, 0.00 when there
// are no items.
func SumLineTotals(items []InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return total
}
