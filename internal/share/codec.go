// Package share implements the stateless bill-sharing protocol: a draft
// bill is projected onto a compact payload, serialized, and carried as a
// single URL query parameter so another device can reconstruct it without
// any server-side state.
package share

import (
	"encoding/base64"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/billing-station/internal/domain/bill"
)

// QueryKey is the fixed query parameter carrying the share token.
const QueryKey = "b"

// DefaultStoreName is used when a decoded payload carries no store name.
const DefaultStoreName = "THE SILVER LINING"

// ErrNoToken is returned by Decode when the URL has no share parameter.
var ErrNoToken = errors.New("no share token")

// Item is the financially relevant projection of a line item. Per-item IDs
// are dropped: they are regenerated on the receiving side and play no part
// in bill arithmetic.
type Item struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
	Discount decimal.Decimal
}

// Payload is the minimal serializable projection of a draft bill.
type Payload struct {
	StoreName     string
	Items         []Item
	Discount      decimal.Decimal
	BillID        string
	CustomerPhone string
}

// FromDraft projects a draft bill onto a share payload.
func FromDraft(d *bill.Draft) Payload {
	items := make([]Item, len(d.Items))
	for i, it := range d.Items {
		items[i] = Item{
			Name:     it.Name,
			Price:    it.UnitPrice,
			Quantity: it.Quantity,
			Discount: it.DiscountPercent,
		}
	}
	return Payload{
		StoreName:     d.StoreName,
		Items:         items,
		Discount:      d.DiscountPercent,
		BillID:        d.ID,
		CustomerPhone: d.CustomerPhone,
	}
}

// ToDraft reconstructs an editable draft from the payload. Item IDs are
// freshly generated; a missing bill reference gets a timestamp fallback.
func (p Payload) ToDraft(now time.Time) (*bill.Draft, error) {
	id := p.BillID
	if id == "" {
		id = bill.FallbackReference(now)
	}
	d := bill.NewDraft(id, p.StoreName)
	d.CustomerPhone = p.CustomerPhone
	d.SetDiscountPercent(p.Discount)
	for _, it := range p.Items {
		if _, err := d.AddItem(it.Name, it.Price, it.Quantity, it.Discount); err != nil {
			return nil, errors.Wrapf(err, "item %q", it.Name)
		}
	}
	return d, nil
}

// Totals computes the payload's bill totals. Decoding a payload produced
// by Encode must yield totals identical to the source draft's.
func (p Payload) Totals() bill.Totals {
	items := make([]bill.LineItem, len(p.Items))
	for i, it := range p.Items {
		items[i] = bill.LineItem{
			Name:            it.Name,
			UnitPrice:       it.Price,
			Quantity:        it.Quantity,
			DiscountPercent: it.Discount,
		}
	}
	return bill.Calculate(items, p.Discount)
}

// Encode serializes the payload to its URL-safe token form. Prices are
// written as exact decimal numbers; no rounding is applied, so encode and
// decode are lossless with respect to bill arithmetic.
func Encode(p Payload) string {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("s", func(e *jx.Encoder) { e.Str(p.StoreName) })
		e.Field("i", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range p.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("price", func(e *jx.Encoder) { e.Num(jx.Num(it.Price.String())) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("discount", func(e *jx.Encoder) { e.Num(jx.Num(it.Discount.String())) })
					})
				}
			})
		})
		e.Field("d", func(e *jx.Encoder) { e.Num(jx.Num(p.Discount.String())) })
		e.Field("id", func(e *jx.Encoder) { e.Str(p.BillID) })
		e.Field("p", func(e *jx.Encoder) { e.Str(p.CustomerPhone) })
	})
	return base64.RawURLEncoding.EncodeToString(e.Bytes())
}

// DecodeToken parses a token produced by Encode. Unknown fields are
// skipped; missing fields take their documented defaults (empty items,
// zero discounts, default store name). A missing bill reference is left
// empty for ToDraft to fill.
func DecodeToken(token string) (Payload, error) {
	raw, err := base64URLDecode(token)
	if err != nil {
		return Payload{}, errors.Wrap(err, "decode base64")
	}

	p := Payload{
		Discount: decimal.Zero,
	}
	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "s":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "store name")
			}
			p.StoreName = v
		case "i":
			return d.Arr(func(d *jx.Decoder) error {
				it, err := decodeItem(d)
				if err != nil {
					return err
				}
				p.Items = append(p.Items, it)
				return nil
			})
		case "d":
			v, err := decodeDecimal(d)
			if err != nil {
				return errors.Wrap(err, "global discount")
			}
			p.Discount = bill.ClampPercent(v)
		case "id":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "bill id")
			}
			p.BillID = v
		case "p":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "customer phone")
			}
			p.CustomerPhone = v
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return Payload{}, errors.Wrap(err, "parse payload")
	}

	if p.StoreName == "" {
		p.StoreName = DefaultStoreName
	}
	return p, nil
}

// decodeItem parses one item object, defaulting quantity to 1 and the
// per-item discount to zero when absent.
func decodeItem(d *jx.Decoder) (Item, error) {
	it := Item{
		Quantity: 1,
		Price:    decimal.Zero,
		Discount: decimal.Zero,
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "name")
			}
			it.Name = v
		case "price":
			v, err := decodeDecimal(d)
			if err != nil {
				return errors.Wrap(err, "price")
			}
			it.Price = v
		case "quantity":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "quantity")
			}
			it.Quantity = v
		case "discount":
			v, err := decodeDecimal(d)
			if err != nil {
				return errors.Wrap(err, "discount")
			}
			it.Discount = bill.ClampPercent(v)
		default:
			return d.Skip()
		}
		return nil
	})
	return it, err
}

// decodeDecimal reads a JSON number as an exact decimal.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	s := strings.Trim(n.String(), `"`)
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "number %q", s)
	}
	return v, nil
}

// Decode extracts and parses the share token from a page URL.
// It reports found=false (with no error) when the URL carries no token.
func Decode(rawURL string) (p Payload, found bool, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Payload{}, false, errors.Wrap(err, "parse url")
	}
	token := u.Query().Get(QueryKey)
	if token == "" {
		return Payload{}, false, nil
	}
	p, err = DecodeToken(token)
	if err != nil {
		return Payload{}, true, err
	}
	return p, true, nil
}

// AttachToken returns pageURL with the share token set as the value of the
// fixed query key, replacing any such key already present.
func AttachToken(pageURL, token string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", errors.Wrap(err, "parse url")
	}
	q := u.Query()
	q.Set(QueryKey, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// StripToken removes the share parameter from the URL, leaving everything
// else intact. Used to scrub a malformed token from the displayed location.
func StripToken(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		// Not parseable as a URL at all: fall back to cutting the query.
		base, _, _ := strings.Cut(rawURL, "?")
		return base
	}
	q := u.Query()
	q.Del(QueryKey)
	u.RawQuery = q.Encode()
	return u.String()
}

// base64URLDecode accepts both raw and padded URL-safe base64, plus the
// standard alphabet produced by older senders.
func base64URLDecode(token string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	} {
		if raw, err := enc.DecodeString(token); err == nil {
			return raw, nil
		}
	}
	return nil, errors.New("invalid base64 token")
}
