package httpapi

import (
	"context"
	"net/http"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"github.com/riskibarqy/goal-alerts/internal/usecase"
)

type Handler struct {
	alerts    *usecase.AlertService
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(alerts *usecase.AlertService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		alerts:    alerts,
		logger:    logger.Named("httpapi"),
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startHandlerSpan(ctx, "validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return crerr.Wrapf(usecase.ErrInvalidInput, "validation failed: %v", err)
	}

	return nil
}

type textDTO struct {
	Text string `json:"text"`
}
