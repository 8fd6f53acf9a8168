package bill

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraft_AddItem(t *testing.T) {
	tests := []struct {
		name      string
		itemName  string
		unitPrice decimal.Decimal
		quantity  int
		discount  decimal.Decimal
		wantErr   error
	}{
		{
			name:      "valid item",
			itemName:  "Tea",
			unitPrice: d("50"),
			quantity:  2,
			discount:  d("5"),
		},
		{
			name:      "empty name rejected",
			itemName:  "",
			unitPrice: d("10"),
			quantity:  1,
			wantErr:   ErrEmptyName,
		},
		{
			name:      "negative price rejected",
			itemName:  "Tea",
			unitPrice: d("-1"),
			quantity:  1,
			wantErr:   ErrNegativePrice,
		},
		{
			name:      "zero quantity rejected",
			itemName:  "Tea",
			unitPrice: d("10"),
			quantity:  0,
			wantErr:   ErrInvalidQuantity,
		},
		{
			name:      "zero price allowed",
			itemName:  "Freebie",
			unitPrice: d("0"),
			quantity:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := NewDraft("TSL-2026-1234", "Acme")
			item, err := draft.AddItem(tt.itemName, tt.unitPrice, tt.quantity, tt.discount)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, draft.Items, "rejected item must not enter the cart")
				return
			}

			require.NoError(t, err)
			require.Len(t, draft.Items, 1)
			assert.NotEmpty(t, item.ID)
			assert.Equal(t, tt.itemName, item.Name)
		})
	}
}

func TestDraft_AddItem_ClampsDiscount(t *testing.T) {
	draft := NewDraft("TSL-2026-1234", "Acme")

	over, err := draft.AddItem("A", d("10"), 1, d("150"))
	require.NoError(t, err)
	assert.True(t, over.DiscountPercent.Equal(d("100")))

	under, err := draft.AddItem("B", d("10"), 1, d("-5"))
	require.NoError(t, err)
	assert.True(t, under.DiscountPercent.IsZero())
}

func TestDraft_RemoveItem(t *testing.T) {
	draft := NewDraft("TSL-2026-1234", "Acme")
	first, err := draft.AddItem("First", d("10"), 1, decimal.Zero)
	require.NoError(t, err)
	second, err := draft.AddItem("Second", d("20"), 1, decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, draft.RemoveItem(first.ID))
	require.Len(t, draft.Items, 1)
	assert.Equal(t, second.ID, draft.Items[0].ID)

	assert.ErrorIs(t, draft.RemoveItem("missing"), ErrItemNotFound)
}

func TestDraft_SetDiscountPercent(t *testing.T) {
	draft := NewDraft("TSL-2026-1234", "Acme")

	draft.SetDiscountPercent(d("250"))
	assert.True(t, draft.DiscountPercent.Equal(d("100")))

	draft.SetDiscountPercent(d("-10"))
	assert.True(t, draft.DiscountPercent.IsZero())

	draft.SetDiscountPercent(d("12.5"))
	assert.True(t, draft.DiscountPercent.Equal(d("12.5")))
}

func TestNewReference(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for range 50 {
		ref := NewReference("TSL", now)
		assert.Regexp(t, `^TSL-2026-\d{4}$`, ref)
	}
}

func TestFallbackReference(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	assert.Equal(t, "BILL-1700000000000", FallbackReference(now))
}
