package share

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundredDec = decimal.NewFromInt(100)

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// WhatsAppLink builds a wa.me hand-off URL for the given phone number and
// message body. Everything but digits is stripped from the phone number;
// the message is query-escaped.
func WhatsAppLink(phone, message string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return "https://wa.me/" + digits.String() + "?text=" + url.QueryEscape(message)
}

// ShortMessage is the compact bill message: store banner plus the view link.
func ShortMessage(storeName, link string) string {
	return fmt.Sprintf("Digital Invoice from *%s*.\n\nView Bill: %s", strings.ToUpper(storeName), link)
}

// FullMessage renders the complete human-readable bill: header, itemized
// lines with per-item discount annotations, gross amount, total savings,
// final payable, and the share link.
func FullMessage(p Payload, now time.Time, link string) string {
	totals := p.Totals()

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", strings.ToUpper(p.StoreName))
	fmt.Fprintf(&b, "Bill: %s\n", p.BillID)
	fmt.Fprintf(&b, "Date: %s\n\n", now.Format("02/01/2006"))

	for _, it := range p.Items {
		line := it.Price.Mul(decimalFromInt(it.Quantity))
		net := line.Sub(line.Mul(it.Discount).Div(hundredDec))
		if it.Discount.IsPositive() {
			fmt.Fprintf(&b, "%s x%d @ %s (-%s%%) = %s\n",
				it.Name, it.Quantity, it.Price.StringFixed(2), it.Discount.String(), net.StringFixed(2))
		} else {
			fmt.Fprintf(&b, "%s x%d @ %s = %s\n",
				it.Name, it.Quantity, it.Price.StringFixed(2), net.StringFixed(2))
		}
	}

	fmt.Fprintf(&b, "\nGross: %s\n", totals.Gross.StringFixed(2))
	if totals.TotalDiscount.IsPositive() {
		fmt.Fprintf(&b, "You saved: %s\n", totals.TotalDiscount.StringFixed(2))
	}
	fmt.Fprintf(&b, "Payable: %s\n", totals.Net.StringFixed(2))
	fmt.Fprintf(&b, "\nView Bill: %s", link)
	return b.String()
}
