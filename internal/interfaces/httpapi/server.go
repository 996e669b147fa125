package httpapi

import (
	"net/http"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
)

func NewRouter(
	handler *Handler,
	logger *logging.Logger,
	metricsHandler http.Handler,
	adminToken string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, metricsHandler)
	registerMatchRoutes(mux, handler)
	registerSubscriptionRoutes(mux, handler)
	registerAdminRoutes(mux, handler, adminToken)

	return RequestTracing(RequestLogging(logger, recoverPanic(logger, mux)))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				ctx := r.Context()
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeError(ctx, w, crerr.Newf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
