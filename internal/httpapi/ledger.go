package httpapi

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
)

// GetLedger returns all finalized bills, newest first, plus the running
// summary. The summary is computed from the entries on every call, so the
// two can never disagree.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	entries := h.session.LedgerEntries()
	summary := h.session.LedgerSummary()

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("entries", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, entry := range entries {
						encodeEntry(e, entry)
					}
				})
			})
			e.Field("summary", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("subtotal", func(e *jx.Encoder) { money(e, summary.Subtotal) })
					e.Field("discount", func(e *jx.Encoder) { money(e, summary.Discount) })
					e.Field("total", func(e *jx.Encoder) { money(e, summary.Total) })
					e.Field("count", func(e *jx.Encoder) { e.Int(summary.Count) })
				})
			})
		})
	})
}

// ClearLedger irreversibly empties the ledger. The request must carry an
// explicit confirmation flag.
func (h *Handler) ClearLedger(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.session.ClearLedger(r.Context(), req.Confirm); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportLedger streams the tab-separated ledger export. With ?gzip=1 the
// body is gzip-compressed, which matters once a busy day accumulates a few
// thousand rows.
func (h *Handler) ExportLedger(w http.ResponseWriter, r *http.Request) {
	out := h.session.ExportLedger()

	w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="daily-ledger.tsv"`)

	if r.URL.Query().Get("gzip") == "1" {
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusOK)
		gz := pgzip.NewWriter(w)
		if _, err := gz.Write([]byte(out)); err != nil {
			zctx.From(r.Context()).Error("write export", zap.Error(err))
			return
		}
		if err := gz.Close(); err != nil {
			zctx.From(r.Context()).Error("close export stream", zap.Error(err))
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}
