// Package extract defines the text-to-line-items collaborator: free text
// goes in, structured billing items come out. The implementation is an
// external AI service; the core only sees this interface.
package extract

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnavailable is returned when no extraction backend is configured.
	ErrUnavailable = errors.New("extraction service not configured")
	// ErrNoItems is returned when the service answered but produced no
	// usable items. Callers surface it as a notice and leave the cart
	// untouched.
	ErrNoItems = errors.New("no items recognized")
)

// Item is one extracted billing line candidate.
type Item struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// Extractor converts free text into billing item candidates. It may fail;
// failure must never alter existing cart contents.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]Item, error)
}

// Nop is the disabled extractor, wired when no API key is configured.
type Nop struct{}

func (Nop) Extract(context.Context, string) ([]Item, error) {
	return nil, ErrUnavailable
}
