package httpapi

import (
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
	"github.com/riskibarqy/goal-alerts/internal/usecase"
)

type subscribeRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,max=64"`
	Tier        string `json:"tier" validate:"required,oneof=reminder live highlighted"`
}

type testGoalRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,max=64"`
}

type subscriptionDTO struct {
	RecipientID string   `json:"recipient_id"`
	Tiers       []string `json:"tiers"`
}

type deliveryReportDTO struct {
	Tier   string `json:"tier"`
	Sent   int    `json:"sent"`
	Failed int    `json:"failed"`
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "Subscribe")
	defer span.End()

	var req subscribeRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, crerr.Wrapf(usecase.ErrInvalidInput, "invalid JSON payload: %v", err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	recipient := subscriber.RecipientID(strings.TrimSpace(req.RecipientID))
	if err := h.alerts.Subscribe(ctx, recipient, subscriber.Tier(req.Tier)); err != nil {
		h.logger.WarnContext(ctx, "subscribe failed", "recipient", recipient, "tier", req.Tier, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.writeSubscriptions(w, r.WithContext(ctx), recipient, http.StatusCreated)
}

func (h *Handler) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "GetSubscriptions")
	defer span.End()

	recipient := subscriber.RecipientID(strings.TrimSpace(r.PathValue("recipientID")))
	h.writeSubscriptions(w, r.WithContext(ctx), recipient, http.StatusOK)
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "Unsubscribe")
	defer span.End()

	recipient := subscriber.RecipientID(strings.TrimSpace(r.PathValue("recipientID")))
	if err := h.alerts.Unsubscribe(ctx, recipient); err != nil {
		writeError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SendTestGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "SendTestGoal")
	defer span.End()

	var req testGoalRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, crerr.Wrapf(usecase.ErrInvalidInput, "invalid JSON payload: %v", err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	reports, err := h.alerts.SendTestGoal(ctx, subscriber.RecipientID(strings.TrimSpace(req.RecipientID)))
	if err != nil {
		h.logger.WarnContext(ctx, "send test goal failed", "recipient", req.RecipientID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]deliveryReportDTO, 0, len(reports))
	for _, report := range reports {
		out = append(out, deliveryReportDTO{
			Tier:   string(report.Tier),
			Sent:   report.Sent,
			Failed: report.Failed,
		})
	}
	writeSuccess(ctx, w, http.StatusAccepted, out)
}

func (h *Handler) writeSubscriptions(w http.ResponseWriter, r *http.Request, recipient subscriber.RecipientID, status int) {
	ctx := r.Context()

	tiers, err := h.alerts.Tiers(ctx, recipient)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	names := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		names = append(names, string(tier))
	}
	writeSuccess(ctx, w, status, subscriptionDTO{
		RecipientID: string(recipient),
		Tiers:       names,
	})
}
