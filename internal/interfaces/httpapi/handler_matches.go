package httpapi

import "net/http"

func (h *Handler) ListLiveNow(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "ListLiveNow")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, textDTO{Text: h.alerts.ListLiveNow(ctx)})
}

func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "ListUpcoming")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, textDTO{Text: h.alerts.ListUpcoming(ctx)})
}
