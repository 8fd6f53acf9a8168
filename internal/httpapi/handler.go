// Package httpapi exposes the operator billing surface over HTTP. Handlers
// are a thin mapping onto session operations; all invariants live in the
// domain packages.
package httpapi

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/billing-station/internal/domain/bill"
	"github.com/xenking/billing-station/internal/domain/session"
	"github.com/xenking/billing-station/internal/extract"
	"github.com/xenking/billing-station/internal/render"
)

// Handler serves the billing API for a single operator session.
type Handler struct {
	session *session.Session
}

// NewHandler creates a Handler around the given session.
func NewHandler(s *session.Session) *Handler {
	return &Handler{session: s}
}

// Register attaches all API routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/session", h.GetSession)

	mux.HandleFunc("POST /api/items", h.AddItem)
	mux.HandleFunc("DELETE /api/items/{id}", h.RemoveItem)
	mux.HandleFunc("PUT /api/discount", h.SetDiscount)
	mux.HandleFunc("PUT /api/store", h.SetStore)
	mux.HandleFunc("PUT /api/customer", h.SetCustomer)
	mux.HandleFunc("POST /api/extract", h.ExtractItems)
	mux.HandleFunc("POST /api/finalize", h.Finalize)
	mux.HandleFunc("POST /api/new", h.StartNew)

	mux.HandleFunc("POST /api/preview/open", h.OpenPreview)
	mux.HandleFunc("POST /api/preview/close", h.ClosePreview)
	mux.HandleFunc("POST /api/preview/image", h.RenderReceipt)

	mux.HandleFunc("GET /api/share", h.ShareLink)
	mux.HandleFunc("GET /api/share/whatsapp", h.WhatsAppLink)
	mux.HandleFunc("GET /api/shared", h.ViewShared)

	mux.HandleFunc("GET /api/ledger", h.GetLedger)
	mux.HandleFunc("POST /api/ledger/clear", h.ClearLedger)
	mux.HandleFunc("GET /api/ledger/export", h.ExportLedger)
}

// writeDomainError maps domain errors onto the API error envelope.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, bill.ErrEmptyName),
		errors.Is(err, bill.ErrNegativePrice),
		errors.Is(err, bill.ErrInvalidQuantity),
		errors.Is(err, session.ErrNotConfirmed):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, bill.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrEmptyDraft):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, session.ErrReadOnly),
		errors.Is(err, session.ErrNotShared):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, extract.ErrUnavailable),
		errors.Is(err, render.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, extract.ErrNoItems):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		zctx.From(r.Context()).Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
