package ledger

import (
	"fmt"
	"strings"
)

// exportHeader is the fixed column order of the tab-separated export.
const exportHeader = "Bill ID\tTime\tCustomer\tItems\tSubtotal\tDiscount\tTotal"

// Export renders the full ledger plus a trailing TOTALS row as a
// tab-separated text block suitable for pasting into a spreadsheet.
// Monetary fields are fixed to 2 decimals; the items cell is quoted since
// item summaries contain commas.
func (l *Ledger) Export() string {
	var b strings.Builder
	b.WriteString(exportHeader)
	b.WriteByte('\n')

	for _, e := range l.entries {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%q\t%s\t%s\t%s\n",
			e.BillID,
			e.Time,
			e.Customer,
			e.Items,
			e.Subtotal.StringFixed(2),
			e.Discount.StringFixed(2),
			e.Total.StringFixed(2),
		)
	}

	s := l.Summary()
	fmt.Fprintf(&b, "TOTALS\t\t\t\t%s\t%s\t%s",
		s.Subtotal.StringFixed(2),
		s.Discount.StringFixed(2),
		s.Total.StringFixed(2),
	)
	return b.String()
}
