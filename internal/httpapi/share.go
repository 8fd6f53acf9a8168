package httpapi

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/billing-station/internal/domain/session"
	"github.com/xenking/billing-station/internal/share"
)

// ShareLink returns the deep link for the current draft.
func (h *Handler) ShareLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.session.ShareLink()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("link", func(e *jx.Encoder) { e.Str(link) })
		})
	})
}

// WhatsAppLink returns the wa.me hand-off URL for the current draft.
// The variant query parameter selects the message body: "full" for the
// itemized bill, anything else for the short link-only message.
func (h *Handler) WhatsAppLink(w http.ResponseWriter, r *http.Request) {
	variant := session.VariantLink
	if r.URL.Query().Get("variant") == string(session.VariantFull) {
		variant = session.VariantFull
	}

	link, err := h.session.WhatsAppLink(variant)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("link", func(e *jx.Encoder) { e.Str(link) })
		})
	})
}

// ViewShared statelessly decodes a share token for a guest device. It does
// not touch the operator session: a guest viewing a bill is its own
// read-only world. A malformed token is logged and answered with the
// scrubbed URL so the client can clean its location bar.
func (h *Handler) ViewShared(w http.ResponseWriter, r *http.Request) {
	payload, found, err := share.Decode(r.URL.String())
	if !found {
		writeError(w, http.StatusBadRequest, "share token required")
		return
	}
	if err != nil {
		zctx.From(r.Context()).Info("share token decode failed", zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("code", func(e *jx.Encoder) { e.Int(http.StatusUnprocessableEntity) })
				e.Field("message", func(e *jx.Encoder) { e.Str("malformed share token") })
				e.Field("cleanUrl", func(e *jx.Encoder) { e.Str(share.StripToken(r.URL.String())) })
			})
		})
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("bill", func(e *jx.Encoder) { encodePayload(e, payload) })
			e.Field("totals", func(e *jx.Encoder) { encodeTotals(e, payload.Totals()) })
		})
	})
}
