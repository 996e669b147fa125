package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metricsHandler http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches/live", handler.ListLiveNow)
	mux.HandleFunc("GET /v1/matches/upcoming", handler.ListUpcoming)
}

func registerSubscriptionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/subscriptions", handler.Subscribe)
	mux.HandleFunc("GET /v1/subscriptions/{recipientID}", handler.GetSubscriptions)
	mux.HandleFunc("DELETE /v1/subscriptions/{recipientID}", handler.Unsubscribe)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.Handle("POST /v1/admin/test-goal", RequireAdminToken(adminToken, http.HandlerFunc(handler.SendTestGoal)))
}
