package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"github.com/riskibarqy/goal-alerts/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, crerr.Wrap(usecase.ErrInvalidInput, "bad payload"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, errors.New("registry exploded at 0xdeadbeef"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	errorObj, _ := body["error"].(map[string]any)
	if got, _ := errorObj["message"].(string); got != "internal server error" {
		t.Fatalf("expected generic message, got %v", errorObj["message"])
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{name: "unknown tier", err: crerr.Mark(crerr.Wrap(usecase.ErrInvalidInput, "unknown tier"), subscriber.ErrUnknownTier), wantStatus: http.StatusBadRequest, wantReason: "unknownTier"},
		{name: "invalid input", err: crerr.Wrap(usecase.ErrInvalidInput, "x"), wantStatus: http.StatusBadRequest, wantReason: "invalidInput"},
		{name: "not admin", err: crerr.Wrap(usecase.ErrUnauthorized, "x"), wantStatus: http.StatusUnauthorized, wantReason: "notAdmin"},
		{name: "dependency", err: crerr.Wrap(usecase.ErrDependencyUnavailable, "x"), wantStatus: http.StatusServiceUnavailable, wantReason: "dependencyUnavailable"},
		{name: "delivery", err: crerr.Wrap(usecase.ErrDelivery, "x"), wantStatus: http.StatusBadGateway, wantReason: "deliveryFailed"},
		{name: "unmapped", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantReason: "internalError"},
	}
	for _, tc := range cases {
		got := mapError(tc.err)
		if got.HTTPStatus != tc.wantStatus || got.Reason != tc.wantReason {
			t.Fatalf("%s: mapError got=%d/%s want=%d/%s", tc.name, got.HTTPStatus, got.Reason, tc.wantStatus, tc.wantReason)
		}
	}
}

func TestRecoverPanic_WritesInternalEnvelope(t *testing.T) {
	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("registry map is nil")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/matches/live", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusInternalServerError)
	}
	var body envelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if body.Error == nil || body.Error.Message != internalMessage || body.Error.Errors[0].Reason != "internalError" {
		t.Fatalf("unexpected error body: %+v", body.Error)
	}
}
