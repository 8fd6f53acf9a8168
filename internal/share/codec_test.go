package share

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/billing-station/internal/domain/bill"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func samplePayload() Payload {
	return Payload{
		StoreName: "Acme",
		Items: []Item{
			{Name: "X", Price: d("10"), Quantity: 1, Discount: d("0")},
		},
		Discount:      d("5"),
		BillID:        "B-1",
		CustomerPhone: "",
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := samplePayload()

	token := Encode(p)
	got, err := DecodeToken(token)
	require.NoError(t, err)

	assert.Equal(t, "Acme", got.StoreName)
	assert.Equal(t, "B-1", got.BillID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "X", got.Items[0].Name)
	assert.Equal(t, 1, got.Items[0].Quantity)

	totals := got.Totals()
	assert.True(t, totals.Gross.Equal(d("10")), "gross: got %s", totals.Gross)
	assert.True(t, totals.Net.Equal(d("9.5")), "net: got %s", totals.Net)
}

func TestRoundTripPreservesTotals(t *testing.T) {
	p := Payload{
		StoreName: "The Corner Shop",
		Items: []Item{
			{Name: "Cake", Price: d("200"), Quantity: 1, Discount: d("25")},
			{Name: "Tea", Price: d("49.99"), Quantity: 3, Discount: d("0")},
			{Name: "Candle", Price: d("3.33"), Quantity: 7, Discount: d("12.5")},
		},
		Discount:      d("7.25"),
		BillID:        "TSL-2026-4821",
		CustomerPhone: "+91 98765-43210",
	}
	want := p.Totals()

	decoded, err := DecodeToken(Encode(p))
	require.NoError(t, err)
	got := decoded.Totals()

	assert.True(t, want.Gross.Equal(got.Gross))
	assert.True(t, want.ItemDiscounts.Equal(got.ItemDiscounts))
	assert.True(t, want.GlobalDiscount.Equal(got.GlobalDiscount))
	assert.True(t, want.Net.Equal(got.Net))
}

func TestReEncodeIsStable(t *testing.T) {
	// encode -> decode -> encode -> decode must land on the same totals.
	first, err := DecodeToken(Encode(samplePayload()))
	require.NoError(t, err)

	second, err := DecodeToken(Encode(first))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, first.Totals().Net.Equal(second.Totals().Net))
}

func TestDecodeToken_Defaults(t *testing.T) {
	// Legacy senders omit items' discount and may omit whole fields.
	token := base64.RawURLEncoding.EncodeToString([]byte(`{"i":[{"name":"X","price":10}]}`))

	p, err := DecodeToken(token)
	require.NoError(t, err)

	assert.Equal(t, DefaultStoreName, p.StoreName)
	assert.Empty(t, p.BillID)
	assert.Empty(t, p.CustomerPhone)
	assert.True(t, p.Discount.IsZero())
	require.Len(t, p.Items, 1)
	assert.Equal(t, 1, p.Items[0].Quantity, "missing quantity defaults to 1")
	assert.True(t, p.Items[0].Discount.IsZero())
}

func TestDecodeToken_ClampsDiscounts(t *testing.T) {
	token := base64.RawURLEncoding.EncodeToString(
		[]byte(`{"i":[{"name":"X","price":10,"quantity":1,"discount":400}],"d":-3}`))

	p, err := DecodeToken(token)
	require.NoError(t, err)
	assert.True(t, p.Items[0].Discount.Equal(d("100")))
	assert.True(t, p.Discount.IsZero())
}

func TestDecodeToken_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "not base64", token: "!!!not-base64!!!"},
		{name: "not json", token: base64.RawURLEncoding.EncodeToString([]byte("hello"))},
		{name: "truncated json", token: base64.RawURLEncoding.EncodeToString([]byte(`{"s":"Acme","i":[{"na`))},
		{name: "wrong shape", token: base64.RawURLEncoding.EncodeToString([]byte(`{"s":123}`))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestDecodeToken_StandardBase64Accepted(t *testing.T) {
	// Older senders used btoa, which emits the standard padded alphabet.
	token := base64.StdEncoding.EncodeToString([]byte(`{"s":"Acme","i":[],"d":0,"id":"B-9","p":""}`))

	p, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "B-9", p.BillID)
}

func TestDecode_URL(t *testing.T) {
	token := Encode(samplePayload())

	p, found, err := Decode("https://bill.example.com/?b=" + token)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "B-1", p.BillID)

	_, found, err = Decode("https://bill.example.com/")
	require.NoError(t, err)
	assert.False(t, found, "no share parameter means absent, not an error")

	_, found, err = Decode("https://bill.example.com/?b=garbage")
	require.Error(t, err)
	assert.True(t, found)
}

func TestAttachToken_ReplacesExisting(t *testing.T) {
	u, err := AttachToken("https://bill.example.com/?b=old&keep=1", "new")
	require.NoError(t, err)

	_, found, err := Decode(u)
	require.Error(t, err) // "new" is not a valid token, but it is the one present
	assert.True(t, found)
	assert.Contains(t, u, "keep=1")
	assert.NotContains(t, u, "b=old")
}

func TestStripToken(t *testing.T) {
	assert.Equal(t, "https://bill.example.com/?keep=1",
		StripToken("https://bill.example.com/?b=broken&keep=1"))
	assert.Equal(t, "https://bill.example.com/",
		StripToken("https://bill.example.com/?b=broken"))
	assert.Equal(t, "https://bill.example.com/",
		StripToken("https://bill.example.com/"))
}

func TestPayload_ToDraft(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	p := samplePayload()
	draft, err := p.ToDraft(now)
	require.NoError(t, err)
	assert.Equal(t, "B-1", draft.ID)
	require.Len(t, draft.Items, 1)
	assert.NotEmpty(t, draft.Items[0].ID, "item IDs are regenerated")
	assert.True(t, draft.Totals().Net.Equal(d("9.5")))

	p.BillID = ""
	draft, err = p.ToDraft(now)
	require.NoError(t, err)
	assert.Equal(t, "BILL-1700000000000", draft.ID)
}

func TestFromDraft_DropsItemIDs(t *testing.T) {
	draft := bill.NewDraft("B-7", "Acme")
	_, err := draft.AddItem("Tea", d("50"), 2, d("0"))
	require.NoError(t, err)
	draft.SetDiscountPercent(d("10"))

	p := FromDraft(draft)
	assert.Equal(t, "B-7", p.BillID)
	require.Len(t, p.Items, 1)
	assert.True(t, p.Totals().Net.Equal(d("90")))
}
