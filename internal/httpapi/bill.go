package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"
)

// GetSession returns the session mode and the active bill with live totals.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	mode := h.session.Mode()
	totals := h.session.Totals()

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("mode", func(e *jx.Encoder) { e.Str(string(mode)) })
			e.Field("previewOpen", func(e *jx.Encoder) { e.Bool(h.session.PreviewOpen()) })
			if shared, ok := h.session.Shared(); ok {
				e.Field("shared", func(e *jx.Encoder) { encodePayload(e, shared) })
			} else {
				e.Field("draft", func(e *jx.Encoder) { encodeDraft(e, h.session.Draft()) })
			}
			e.Field("totals", func(e *jx.Encoder) { encodeTotals(e, totals) })
		})
	})
}

// AddItem adds a line item to the draft.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string      `json:"name"`
		Price    json.Number `json:"price"`
		Quantity int         `json:"quantity"`
		Discount json.Number `json:"discount"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	price, err := parseDecimal(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "price must be a number")
		return
	}
	discount, err := parseDecimal(req.Discount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "discount must be a number")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.session.AddItem(req.Name, price, req.Quantity, discount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeLineItem(e, item)
	})
}

// RemoveItem deletes a line item from the draft.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.session.RemoveItem(r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDiscount sets the global discount percentage, clamped to [0, 100].
func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Percent json.Number `json:"percent"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pct, err := parseDecimal(req.Percent)
	if err != nil {
		writeError(w, http.StatusBadRequest, "percent must be a number")
		return
	}
	if err := h.session.SetDiscountPercent(pct); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetStore updates the store display name.
func (h *Handler) SetStore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.session.SetStoreName(r.Context(), req.Name); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCustomer updates the customer phone number.
func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.session.SetCustomerPhone(req.Phone); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExtractItems runs the AI extraction collaborator over free text and adds
// the recognized items to the cart. On failure the cart is untouched.
func (h *Handler) ExtractItems(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "text required")
		return
	}

	added, err := h.session.ExtractItems(r.Context(), req.Text)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, it := range added {
						encodeLineItem(e, it)
					}
				})
			})
		})
	})
}

// Finalize converts the draft into a ledger entry and resets the draft.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	entry, err := h.session.Finalize(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeEntry(e, entry)
	})
}

// StartNew discards a shared bill and starts a fresh editing draft.
func (h *Handler) StartNew(w http.ResponseWriter, r *http.Request) {
	if err := h.session.StartNew(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenPreview shows the receipt preview overlay.
func (h *Handler) OpenPreview(w http.ResponseWriter, r *http.Request) {
	if err := h.session.OpenPreview(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClosePreview dismisses the receipt preview overlay.
func (h *Handler) ClosePreview(w http.ResponseWriter, r *http.Request) {
	if err := h.session.ClosePreview(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenderReceipt captures the receipt as a PNG via the image collaborator.
func (h *Handler) RenderReceipt(w http.ResponseWriter, r *http.Request) {
	img, err := h.session.RenderReceipt(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}
