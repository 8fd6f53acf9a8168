// Package ledger holds the session-scoped, append-only record of finalized
// bills and its running aggregates.
package ledger

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Entry is one finalized bill. Entries are immutable once appended.
type Entry struct {
	BillID   string          `json:"id"`
	Time     string          `json:"time"`
	Customer string          `json:"customer"`
	Items    string          `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Summary is the fold of all entries. It is recomputed on demand so it can
// never drift from the entry set.
type Summary struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	Count    int
}

// Ledger is an ordered sequence of entries, newest first. It is not safe
// for concurrent use; the owning session serializes access.
type Ledger struct {
	entries []Entry
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Append inserts the entry at the head of the ledger.
func (l *Ledger) Append(e Entry) {
	l.entries = append([]Entry{e}, l.entries...)
}

// Entries returns the entries newest first. The returned slice is a copy.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Summary folds all entries into running totals.
func (l *Ledger) Summary() Summary {
	s := Summary{
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.Zero,
	}
	for _, e := range l.entries {
		s.Subtotal = s.Subtotal.Add(e.Subtotal)
		s.Discount = s.Discount.Add(e.Discount)
		s.Total = s.Total.Add(e.Total)
		s.Count++
	}
	return s
}

// Clear empties the ledger. Irreversible; the caller is responsible for
// confirming the operation with the operator first.
func (l *Ledger) Clear() {
	l.entries = nil
}

// Snapshot serializes the full ledger for the key-value persistence slot.
func (l *Ledger) Snapshot() (string, error) {
	entries := l.entries
	if entries == nil {
		entries = []Entry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", errors.Wrap(err, "marshal ledger")
	}
	return string(b), nil
}

// Restore replaces the ledger contents from a snapshot produced by Snapshot.
func (l *Ledger) Restore(snapshot string) error {
	var entries []Entry
	if err := json.Unmarshal([]byte(snapshot), &entries); err != nil {
		return errors.Wrap(err, "unmarshal ledger")
	}
	l.entries = entries
	return nil
}
