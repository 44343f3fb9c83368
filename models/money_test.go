package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		unitPrice string
		want      string
	}{
		{"Whole Amount", 2, "50.00", "100.00"},
		{"Single Unit", 1, "75.00", "75.00"},
		{"Repeating Cents", 3, "19.99", "59.97"},
		// 3 × 0.10 is 0.30 exactly; binary floats would drift here.
		{"Small Cents", 3, "0.10", "0.30"},
		{"Zero Price", 4, "0.00", "0.00"},
		{"Large Quantity", 1000, "0.01", "10.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(tt.quantity, money(t, tt.unitPrice))
			assert.True(t, got.Equal(money(t, tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestSumLineTotals(t *testing.T) {
	items := []InvoiceItem{
		{LineTotal: money(t, "100.00")},
		{LineTotal: money(t, "75.00")},
		{LineTotal: money(t, "0.30")},
	}
	assert.True(t, SumLineTotals(items).Equal(money(t, "175.30")))
	assert.True(t, SumLineTotals(nil).Equal(decimal.Zero))
}

func TestNormalizeAmount(t *testing.T) {
	assert.True(t, NormalizeAmount(money(t, "10.005")).Equal(money(t, "10.01")))
	assert.True(t, NormalizeAmount(money(t, "10")).Equal(money(t, "10.00")))
}

func TestCalculateLineTotal(t *testing.T) {
	item := InvoiceItem{Quantity: 7, UnitPrice: money(t, "3.33")}
	assert.True(t, item.CalculateLineTotal().Equal(money(t, "23.31")))
}

func TestCanBePaid(t *testing.T) {
	pending := Invoice{Status: StatusPending}
	paid := Invoice{Status: StatusPaid}
	assert.True(t, pending.CanBePaid())
	assert.False(t, paid.CanBePaid())
}
