package bill

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors for line item validation.
var (
	ErrEmptyName       = errors.New("item name required")
	ErrNegativePrice   = errors.New("unit price must not be negative")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrItemNotFound    = errors.New("item not found")
)

// LineItem is a single product line in a draft bill.
type LineItem struct {
	ID              string
	Name            string
	UnitPrice       decimal.Decimal
	Quantity        int
	DiscountPercent decimal.Decimal
}

// Draft is the in-progress, editable bill. Exactly one draft is active per
// operator session; it is reset (never reused) by finalization.
type Draft struct {
	ID              string
	StoreName       string
	CustomerPhone   string
	Items           []LineItem
	DiscountPercent decimal.Decimal
}

// NewDraft creates an empty draft with the given reference and store name.
func NewDraft(id, storeName string) *Draft {
	return &Draft{
		ID:              id,
		StoreName:       storeName,
		DiscountPercent: decimal.Zero,
	}
}

// AddItem validates and appends a line item, returning the stored item.
// Percentages are clamped here, at the entry boundary; the calculator
// trusts its inputs.
func (d *Draft) AddItem(name string, unitPrice decimal.Decimal, quantity int, discountPercent decimal.Decimal) (LineItem, error) {
	if name == "" {
		return LineItem{}, ErrEmptyName
	}
	if unitPrice.IsNegative() {
		return LineItem{}, ErrNegativePrice
	}
	if quantity <= 0 {
		return LineItem{}, ErrInvalidQuantity
	}

	item := LineItem{
		ID:              uuid.New().String(),
		Name:            name,
		UnitPrice:       unitPrice,
		Quantity:        quantity,
		DiscountPercent: ClampPercent(discountPercent),
	}
	d.Items = append(d.Items, item)
	return item, nil
}

// RemoveItem deletes the line item with the given ID, preserving order.
func (d *Draft) RemoveItem(id string) error {
	for i, item := range d.Items {
		if item.ID == id {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// SetDiscountPercent sets the global discount, clamped to [0, 100].
func (d *Draft) SetDiscountPercent(p decimal.Decimal) {
	d.DiscountPercent = ClampPercent(p)
}

// Totals computes the draft's current totals.
func (d *Draft) Totals() Totals {
	return Calculate(d.Items, d.DiscountPercent)
}

// ClampPercent clamps a percentage to the [0, 100] range.
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// NewReference generates a human-readable bill reference like TSL-2026-4821.
func NewReference(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%d", prefix, now.Year(), 1000+rand.IntN(9000))
}

// FallbackReference generates a timestamp-based reference for bills that
// arrive without one, e.g. from a decoded share token.
func FallbackReference(now time.Time) string {
	return fmt.Sprintf("BILL-%d", now.UnixMilli())
}
