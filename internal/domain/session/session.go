// Package session implements the billing session state machine: an
// operator composing a draft bill, or a guest viewing a shared read-only
// bill. The mode is decided exactly once, from the entry URL, and never
// revisited.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/billing-station/internal/domain/bill"
	"github.com/xenking/billing-station/internal/domain/ledger"
	"github.com/xenking/billing-station/internal/extract"
	"github.com/xenking/billing-station/internal/render"
	"github.com/xenking/billing-station/internal/share"
	"github.com/xenking/billing-station/internal/storage"
)

// Mode is the root state of a session.
type Mode string

const (
	// ModeEditing is the operator composing a draft bill.
	ModeEditing Mode = "editing"
	// ModeViewingShared is a guest viewing a decoded shared bill.
	ModeViewingShared Mode = "viewing_shared"
)

// WalkInCustomer is the display name used when no phone number was entered.
const WalkInCustomer = "Walk-in Customer"

// Sentinel errors for session transitions.
var (
	ErrEmptyDraft   = errors.New("cannot finalize an empty draft")
	ErrReadOnly     = errors.New("shared bills are read-only")
	ErrNotShared    = errors.New("no shared bill to discard")
	ErrNotConfirmed = errors.New("clearing the ledger requires confirmation")
)

// Options configures a session.
type Options struct {
	// KV is the persistence collaborator for the store name and ledger slots.
	KV storage.KV
	// Extractor converts free text into item candidates. Defaults to a nop.
	Extractor extract.Extractor
	// Renderer captures the receipt as an image. Defaults to a nop.
	Renderer render.ReceiptRenderer
	// Logger receives persistence and decode failures. Defaults to zap.NewNop.
	Logger *zap.Logger
	// Clock supplies the current time. Defaults to time.Now.
	Clock func() time.Time
	// BillPrefix prefixes generated bill references. Defaults to "TSL".
	BillPrefix string
	// BaseURL is the public page URL deep links are attached to.
	BaseURL string
	// EntryURL is the URL the session was opened with. A valid share token
	// here puts the session into ModeViewingShared.
	EntryURL string
}

// Session owns the active draft bill and the daily ledger. The domain is
// single-writer, but the HTTP surface is concurrent, so a mutex serializes
// all access.
type Session struct {
	mu sync.Mutex

	mode        Mode
	previewOpen bool
	draft       *bill.Draft
	shared      share.Payload
	ledger      *ledger.Ledger
	entryURL    string

	kv        storage.KV
	extractor extract.Extractor
	renderer  render.ReceiptRenderer
	lg        *zap.Logger
	now       func() time.Time
	prefix    string
	baseURL   string
}

// New builds a session from the entry URL. This is the single point where
// the Editing vs ViewingShared choice is made. A malformed share token is
// logged and scrubbed; the session falls back to a fresh editing draft.
func New(ctx context.Context, opts Options) (*Session, error) {
	s := &Session{
		mode:      ModeEditing,
		ledger:    ledger.New(),
		kv:        opts.KV,
		extractor: opts.Extractor,
		renderer:  opts.Renderer,
		lg:        opts.Logger,
		now:       opts.Clock,
		prefix:    opts.BillPrefix,
		baseURL:   opts.BaseURL,
		entryURL:  opts.EntryURL,
	}
	if s.kv == nil {
		s.kv = storage.NewMemory()
	}
	if s.extractor == nil {
		s.extractor = extract.Nop{}
	}
	if s.renderer == nil {
		s.renderer = render.Nop{}
	}
	if s.lg == nil {
		s.lg = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.prefix == "" {
		s.prefix = "TSL"
	}

	storeName := share.DefaultStoreName
	if v, ok, err := s.kv.Get(ctx, storage.KeyStoreName); err != nil {
		s.lg.Warn("load store name failed", zap.Error(err))
	} else if ok && v != "" {
		storeName = v
	}

	if snap, ok, err := s.kv.Get(ctx, storage.KeyLedger); err != nil {
		s.lg.Warn("load ledger failed", zap.Error(err))
	} else if ok {
		if err := s.ledger.Restore(snap); err != nil {
			s.lg.Warn("restore ledger failed", zap.Error(err))
		}
	}

	s.draft = bill.NewDraft(bill.NewReference(s.prefix, s.now()), storeName)

	if opts.EntryURL != "" {
		payload, found, err := share.Decode(opts.EntryURL)
		switch {
		case err != nil:
			// Non-fatal: scrub the offending parameter and stay in Editing.
			s.lg.Info("share token decode failed", zap.Error(err))
			s.entryURL = share.StripToken(opts.EntryURL)
		case found:
			s.mode = ModeViewingShared
			s.shared = payload
			s.previewOpen = true
		}
	}

	return s, nil
}

// Mode returns the session's root state.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// PreviewOpen reports whether the receipt preview overlay is showing.
func (s *Session) PreviewOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewOpen
}

// EntryURL returns the session's entry URL with any malformed share token
// scrubbed.
func (s *Session) EntryURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entryURL
}

// Draft returns a snapshot of the active draft.
func (s *Session) Draft() bill.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftSnapshot()
}

// draftSnapshot copies the draft. Caller must hold s.mu.
func (s *Session) draftSnapshot() bill.Draft {
	d := *s.draft
	d.Items = make([]bill.LineItem, len(s.draft.Items))
	copy(d.Items, s.draft.Items)
	return d
}

// Totals computes the active bill's totals: the draft's in Editing, the
// shared payload's in ViewingShared.
func (s *Session) Totals() bill.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeViewingShared {
		return s.shared.Totals()
	}
	return s.draft.Totals()
}

// Shared returns the decoded payload when viewing a shared bill.
func (s *Session) Shared() (share.Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shared, s.mode == ModeViewingShared
}

// SetStoreName updates the store display name and persists it.
func (s *Session) SetStoreName(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return ErrReadOnly
	}
	s.draft.StoreName = name
	if err := s.kv.Set(ctx, storage.KeyStoreName, name); err != nil {
		s.lg.Warn("persist store name failed", zap.Error(err))
	}
	return nil
}

// SetCustomerPhone updates the customer phone number on the draft.
func (s *Session) SetCustomerPhone(phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return ErrReadOnly
	}
	s.draft.CustomerPhone = phone
	return nil
}

// SetDiscountPercent sets the global discount, clamped to [0, 100].
func (s *Session) SetDiscountPercent(p decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return ErrReadOnly
	}
	s.draft.SetDiscountPercent(p)
	return nil
}

// AddItem validates and adds a line item to the draft.
func (s *Session) AddItem(name string, price decimal.Decimal, quantity int, discount decimal.Decimal) (bill.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return bill.LineItem{}, ErrReadOnly
	}
	return s.draft.AddItem(name, price, quantity, discount)
}

// RemoveItem deletes a line item from the draft.
func (s *Session) RemoveItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return ErrReadOnly
	}
	return s.draft.RemoveItem(id)
}

// ExtractItems runs the text-to-items collaborator and appends the result
// to the draft. On any failure the cart is left untouched.
func (s *Session) ExtractItems(ctx context.Context, text string) ([]bill.LineItem, error) {
	if s.Mode() != ModeEditing {
		return nil, ErrReadOnly
	}

	// The collaborator call happens outside the lock: it is slow and must
	// not block unrelated session reads.
	candidates, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "extract items")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return nil, ErrReadOnly
	}
	added := make([]bill.LineItem, 0, len(candidates))
	for _, c := range candidates {
		item, err := s.draft.AddItem(c.Name, c.Price, c.Quantity, decimal.Zero)
		if err != nil {
			s.lg.Info("skipping extracted item", zap.String("name", c.Name), zap.Error(err))
			continue
		}
		added = append(added, item)
	}
	return added, nil
}

// OpenPreview shows the receipt preview overlay. Editing only; the draft
// and ledger are unaffected.
func (s *Session) OpenPreview() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return ErrReadOnly
	}
	s.previewOpen = true
	return nil
}

// ClosePreview dismisses the preview overlay.
func (s *Session) ClosePreview() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return ErrReadOnly
	}
	s.previewOpen = false
	return nil
}

// payload returns the share projection of the active bill.
// Caller must hold s.mu.
func (s *Session) payload() share.Payload {
	if s.mode == ModeViewingShared {
		return s.shared
	}
	return share.FromDraft(s.draft)
}

// ShareLink encodes the current draft and attaches the token to the page
// URL. A guest cannot re-share a received bill through this flow.
func (s *Session) ShareLink() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return "", ErrReadOnly
	}
	token := share.Encode(share.FromDraft(s.draft))
	link, err := share.AttachToken(s.baseURL, token)
	if err != nil {
		return "", errors.Wrap(err, "attach token")
	}
	return link, nil
}

// MessageVariant selects the WhatsApp message body.
type MessageVariant string

const (
	// VariantLink sends just the store banner and the view link.
	VariantLink MessageVariant = "link"
	// VariantFull sends the complete itemized bill plus the link.
	VariantFull MessageVariant = "full"
)

// WhatsAppLink builds the messaging hand-off URL for the current draft.
func (s *Session) WhatsAppLink(variant MessageVariant) (string, error) {
	link, err := s.ShareLink()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := share.FromDraft(s.draft)

	var msg string
	switch variant {
	case VariantFull:
		msg = share.FullMessage(p, s.now(), link)
	default:
		msg = share.ShortMessage(p.StoreName, link)
	}
	return share.WhatsAppLink(p.CustomerPhone, msg), nil
}

// RenderReceipt captures the current bill as an image via the collaborator.
// Works in both modes; failure leaves all state untouched.
func (s *Session) RenderReceipt(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	p := s.payload()
	s.mu.Unlock()

	img, err := s.renderer.Render(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "render receipt")
	}
	return img, nil
}

// Finalize converts the draft into an immutable ledger entry, persists the
// ledger, and resets the draft to a fresh one with a new reference. The
// store name survives; the customer phone and global discount do not.
// Finalizing an empty draft is rejected and changes nothing.
func (s *Session) Finalize(ctx context.Context) (ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return ledger.Entry{}, ErrReadOnly
	}
	if len(s.draft.Items) == 0 {
		return ledger.Entry{}, ErrEmptyDraft
	}

	totals := s.draft.Totals()
	customer := s.draft.CustomerPhone
	if customer == "" {
		customer = WalkInCustomer
	}

	entry := ledger.Entry{
		BillID:   s.draft.ID,
		Time:     s.now().Format("03:04 PM"),
		Customer: customer,
		Items:    itemsSummary(s.draft.Items),
		Subtotal: totals.Gross,
		Discount: totals.TotalDiscount,
		Total:    totals.Net,
	}
	s.ledger.Append(entry)
	s.persistLedger(ctx)

	s.draft = bill.NewDraft(bill.NewReference(s.prefix, s.now()), s.draft.StoreName)
	return entry, nil
}

// StartNew discards the shared state and returns to a fresh editing draft.
// Only valid from ViewingShared.
func (s *Session) StartNew(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeViewingShared {
		return ErrNotShared
	}

	storeName := share.DefaultStoreName
	if v, ok, err := s.kv.Get(ctx, storage.KeyStoreName); err == nil && ok && v != "" {
		storeName = v
	}

	s.mode = ModeEditing
	s.previewOpen = false
	s.shared = share.Payload{}
	s.entryURL = share.StripToken(s.entryURL)
	s.draft = bill.NewDraft(bill.NewReference(s.prefix, s.now()), storeName)
	return nil
}

// LedgerEntries returns the finalized bills, newest first.
func (s *Session) LedgerEntries() []ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Entries()
}

// LedgerSummary folds the ledger into running totals.
func (s *Session) LedgerSummary() ledger.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Summary()
}

// ExportLedger renders the tab-separated ledger export.
func (s *Session) ExportLedger() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Export()
}

// ClearLedger irreversibly empties the ledger. The operator must confirm.
func (s *Session) ClearLedger(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Clear()
	s.persistLedger(ctx)
	return nil
}

// persistLedger writes the ledger snapshot to its persistence slot.
// Best-effort: failures are logged and never roll back in-memory state.
// Caller must hold s.mu.
func (s *Session) persistLedger(ctx context.Context) {
	snap, err := s.ledger.Snapshot()
	if err != nil {
		s.lg.Warn("snapshot ledger failed", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, storage.KeyLedger, snap); err != nil {
		s.lg.Warn("persist ledger failed", zap.Error(err))
	}
}

// itemsSummary formats items as "Tea(x2), Cake(x1)".
func itemsSummary(items []bill.LineItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s(x%d)", it.Name, it.Quantity)
	}
	return strings.Join(parts, ", ")
}
