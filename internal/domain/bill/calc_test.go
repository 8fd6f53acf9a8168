package bill

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name          string
		items         []LineItem
		globalPercent decimal.Decimal
		wantGross     decimal.Decimal
		wantItemDisc  decimal.Decimal
		wantGlobal    decimal.Decimal
		wantNet       decimal.Decimal
	}{
		{
			name:          "empty cart yields all zeros",
			items:         nil,
			globalPercent: d("10"),
			wantGross:     decimal.Zero,
			wantItemDisc:  decimal.Zero,
			wantGlobal:    decimal.Zero,
			wantNet:       decimal.Zero,
		},
		{
			name: "global discount only",
			items: []LineItem{
				{Name: "Tea", UnitPrice: d("50"), Quantity: 2},
			},
			globalPercent: d("10"),
			wantGross:     d("100"),
			wantItemDisc:  d("0"),
			wantGlobal:    d("10"),
			wantNet:       d("90"),
		},
		{
			name: "item discount only",
			items: []LineItem{
				{Name: "Cake", UnitPrice: d("200"), Quantity: 1, DiscountPercent: d("25")},
			},
			globalPercent: decimal.Zero,
			wantGross:     d("200"),
			wantItemDisc:  d("50"),
			wantGlobal:    d("0"),
			wantNet:       d("150"),
		},
		{
			name: "item then global discount chains on the reduced subtotal",
			items: []LineItem{
				{Name: "Cake", UnitPrice: d("200"), Quantity: 1, DiscountPercent: d("25")},
				{Name: "Tea", UnitPrice: d("50"), Quantity: 2},
			},
			globalPercent: d("10"),
			wantGross:     d("300"),
			wantItemDisc:  d("50"),
			wantGlobal:    d("25"),
			wantNet:       d("225"),
		},
		{
			name: "full discounts clamp net at zero",
			items: []LineItem{
				{Name: "Gift", UnitPrice: d("99.99"), Quantity: 3, DiscountPercent: d("100")},
			},
			globalPercent: d("100"),
			wantGross:     d("299.97"),
			wantItemDisc:  d("299.97"),
			wantGlobal:    d("0"),
			wantNet:       d("0"),
		},
		{
			name: "fractional prices stay exact across stages",
			items: []LineItem{
				{Name: "Candle", UnitPrice: d("3.33"), Quantity: 3, DiscountPercent: d("10")},
			},
			globalPercent: d("5"),
			wantGross:     d("9.99"),
			wantItemDisc:  d("0.999"),
			wantGlobal:    d("0.44955"),
			wantNet:       d("8.54145"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.items, tt.globalPercent)

			assert.True(t, tt.wantGross.Equal(got.Gross), "gross: want %s got %s", tt.wantGross, got.Gross)
			assert.True(t, tt.wantItemDisc.Equal(got.ItemDiscounts), "item discounts: want %s got %s", tt.wantItemDisc, got.ItemDiscounts)
			assert.True(t, tt.wantGlobal.Equal(got.GlobalDiscount), "global discount: want %s got %s", tt.wantGlobal, got.GlobalDiscount)
			assert.True(t, tt.wantNet.Equal(got.Net), "net: want %s got %s", tt.wantNet, got.Net)

			// Derived fields are consistent with the stage outputs.
			assert.True(t, got.AfterItemDiscounts.Equal(got.Gross.Sub(got.ItemDiscounts)))
			assert.True(t, got.TotalDiscount.Equal(got.ItemDiscounts.Add(got.GlobalDiscount)))
		})
	}
}

func TestCalculate_NetBounds(t *testing.T) {
	// For any valid inputs the net total stays within [0, gross].
	items := []LineItem{
		{Name: "A", UnitPrice: d("19.95"), Quantity: 4, DiscountPercent: d("33")},
		{Name: "B", UnitPrice: d("0.01"), Quantity: 1000, DiscountPercent: d("100")},
		{Name: "C", UnitPrice: d("0"), Quantity: 1},
	}
	for _, pct := range []string{"0", "0.5", "33.33", "99.99", "100"} {
		got := Calculate(items, d(pct))
		require.False(t, got.Net.IsNegative(), "net must never go negative at %s%%", pct)
		require.True(t, got.Net.LessThanOrEqual(got.Gross), "net must not exceed gross at %s%%", pct)
	}
}
