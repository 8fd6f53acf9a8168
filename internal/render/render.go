// Package render defines the receipt image capture collaborator. Actual
// rasterization happens outside the core; failures surface as dismissible
// notices and never touch the draft or the ledger.
package render

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/billing-station/internal/share"
)

// ErrUnavailable is returned when no renderer is configured.
var ErrUnavailable = errors.New("receipt renderer not configured")

// ReceiptRenderer renders a share payload into a PNG image for the share
// sheet. The caller disables the triggering control while a render is in
// flight; no cancellation beyond ctx is supported.
type ReceiptRenderer interface {
	Render(ctx context.Context, receipt share.Payload) ([]byte, error)
}

// Nop is the disabled renderer.
type Nop struct{}

func (Nop) Render(context.Context, share.Payload) ([]byte, error) {
	return nil, ErrUnavailable
}
