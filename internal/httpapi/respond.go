package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/billing-station/internal/domain/bill"
	"github.com/xenking/billing-station/internal/domain/ledger"
	"github.com/xenking/billing-station/internal/share"
)

// writeJSON renders a response body with the given encoder function.
func writeJSON(w http.ResponseWriter, status int, f func(e *jx.Encoder)) {
	var e jx.Encoder
	f(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError renders the {code, message} error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// decodeBody parses a JSON request body into dst, using json.Number so
// monetary values survive as exact strings.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}

// parseDecimal converts a request field into a decimal, treating the empty
// string as zero.
func parseDecimal(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.String())
}

// money writes a monetary amount rounded to 2 places. Rounding happens
// here, at the presentation edge, never inside the calculator.
func money(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.StringFixed(2)))
}

// exact writes a decimal without rounding (unit prices, percentages).
func exact(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

func encodeTotals(e *jx.Encoder, t bill.Totals) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("gross", func(e *jx.Encoder) { money(e, t.Gross) })
		e.Field("itemDiscounts", func(e *jx.Encoder) { money(e, t.ItemDiscounts) })
		e.Field("globalDiscount", func(e *jx.Encoder) { money(e, t.GlobalDiscount) })
		e.Field("totalDiscount", func(e *jx.Encoder) { money(e, t.TotalDiscount) })
		e.Field("net", func(e *jx.Encoder) { money(e, t.Net) })
	})
}

func encodeLineItem(e *jx.Encoder, it bill.LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("price", func(e *jx.Encoder) { exact(e, it.UnitPrice) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		e.Field("discount", func(e *jx.Encoder) { exact(e, it.DiscountPercent) })
	})
}

func encodeDraft(e *jx.Encoder, d bill.Draft) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(d.ID) })
		e.Field("store", func(e *jx.Encoder) { e.Str(d.StoreName) })
		e.Field("customer", func(e *jx.Encoder) { e.Str(d.CustomerPhone) })
		e.Field("discount", func(e *jx.Encoder) { exact(e, d.DiscountPercent) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range d.Items {
					encodeLineItem(e, it)
				}
			})
		})
	})
}

func encodePayload(e *jx.Encoder, p share.Payload) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.BillID) })
		e.Field("store", func(e *jx.Encoder) { e.Str(p.StoreName) })
		e.Field("customer", func(e *jx.Encoder) { e.Str(p.CustomerPhone) })
		e.Field("discount", func(e *jx.Encoder) { exact(e, p.Discount) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range p.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("price", func(e *jx.Encoder) { exact(e, it.Price) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("discount", func(e *jx.Encoder) { exact(e, it.Discount) })
					})
				}
			})
		})
	})
}

func encodeEntry(e *jx.Encoder, entry ledger.Entry) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(entry.BillID) })
		e.Field("time", func(e *jx.Encoder) { e.Str(entry.Time) })
		e.Field("customer", func(e *jx.Encoder) { e.Str(entry.Customer) })
		e.Field("items", func(e *jx.Encoder) { e.Str(entry.Items) })
		e.Field("subtotal", func(e *jx.Encoder) { money(e, entry.Subtotal) })
		e.Field("discount", func(e *jx.Encoder) { money(e, entry.Discount) })
		e.Field("total", func(e *jx.Encoder) { money(e, entry.Total) })
	})
}
