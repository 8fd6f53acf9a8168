package bill

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals holds every stage of the bill computation. All values are exact
// decimals; rounding to 2 places happens only at presentation time so the
// item -> global discount chain never compounds rounding error.
type Totals struct {
	// Gross is the sum of unit price * quantity over all items.
	Gross decimal.Decimal
	// ItemDiscounts is the sum of per-item discount amounts.
	ItemDiscounts decimal.Decimal
	// AfterItemDiscounts is Gross minus ItemDiscounts.
	AfterItemDiscounts decimal.Decimal
	// GlobalDiscount is the global percentage applied to AfterItemDiscounts.
	GlobalDiscount decimal.Decimal
	// TotalDiscount is ItemDiscounts + GlobalDiscount.
	TotalDiscount decimal.Decimal
	// Net is the final payable amount, clamped at zero.
	Net decimal.Decimal
}

// Calculate computes bill totals from items and a global discount percent.
// It is pure and never fails; an empty item list yields all-zero totals.
// Inputs are trusted: percentage clamping is the caller's contract.
func Calculate(items []LineItem, globalPercent decimal.Decimal) Totals {
	gross := decimal.Zero
	itemDiscounts := decimal.Zero
	for _, item := range items {
		line := lineGross(item)
		gross = gross.Add(line)
		itemDiscounts = itemDiscounts.Add(line.Mul(item.DiscountPercent).Div(hundred))
	}

	afterItems := gross.Sub(itemDiscounts)
	globalDiscount := afterItems.Mul(globalPercent).Div(hundred)

	net := afterItems.Sub(globalDiscount)
	if net.IsNegative() {
		net = decimal.Zero
	}

	return Totals{
		Gross:              gross,
		ItemDiscounts:      itemDiscounts,
		AfterItemDiscounts: afterItems,
		GlobalDiscount:     globalDiscount,
		TotalDiscount:      itemDiscounts.Add(globalDiscount),
		Net:                net,
	}
}

// lineGross returns unit price * quantity for a single item.
func lineGross(item LineItem) decimal.Decimal {
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}
