package httpapi

import (
	"context"
	"net/http"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
	"github.com/riskibarqy/goal-alerts/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "goal-alerts"
	internalMessage  = "internal server error"
)

type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	Errors  []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorRule struct {
	target     error
	HTTPStatus int
	Status     string
	Reason     string
}

// First match wins, so narrower sentinels sit above the ones they wrap.
var errorRules = []errorRule{
	{target: subscriber.ErrUnknownTier, HTTPStatus: http.StatusBadRequest, Status: "INVALID_ARGUMENT", Reason: "unknownTier"},
	{target: usecase.ErrInvalidInput, HTTPStatus: http.StatusBadRequest, Status: "INVALID_ARGUMENT", Reason: "invalidInput"},
	{target: usecase.ErrUnauthorized, HTTPStatus: http.StatusUnauthorized, Status: "UNAUTHENTICATED", Reason: "notAdmin"},
	{target: usecase.ErrDependencyUnavailable, HTTPStatus: http.StatusServiceUnavailable, Status: "UNAVAILABLE", Reason: "dependencyUnavailable"},
	{target: usecase.ErrDelivery, HTTPStatus: http.StatusBadGateway, Status: "UNAVAILABLE", Reason: "deliveryFailed"},
}

var internalRule = errorRule{HTTPStatus: http.StatusInternalServerError, Status: "INTERNAL", Reason: "internalError"}

func mapError(err error) errorRule {
	for _, rule := range errorRules {
		if crerr.Is(err, rule.target) {
			return rule
		}
	}
	return internalRule
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{APIVersion: googleAPIVersion, Data: data})
}

// writeError renders err as a Google-style error envelope. Anything that does
// not match a rule, a recovered panic included, is reported as a bare 500.
func writeError(_ context.Context, w http.ResponseWriter, err error) {
	rule := mapError(err)
	message := internalMessage
	if rule.HTTPStatus != http.StatusInternalServerError {
		message = err.Error()
	}

	writeJSON(w, rule.HTTPStatus, envelope{
		APIVersion: googleAPIVersion,
		Error: &errorBody{
			Code:    rule.HTTPStatus,
			Message: message,
			Status:  rule.Status,
			Errors:  []errorItem{{Domain: errorDomain, Reason: rule.Reason, Message: message}},
		},
	})
}
