package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsTracedPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "/healthz", want: false},
		{path: "/health", want: false},
		{path: "/livez", want: false},
		{path: "/readyz", want: false},
		{path: "/metrics", want: false},
		{path: " /HEALTHZ ", want: false},
		{path: "/v1/matches/live", want: true},
		{path: "/v1/subscriptions", want: true},
		{path: "/v1/admin/test-goal", want: true},
		{path: "/", want: true},
	}

	for _, tt := range tests {
		if got := isTracedPath(tt.path); got != tt.want {
			t.Fatalf("isTracedPath(%q) got=%v want=%v", tt.path, got, tt.want)
		}
	}
}

func TestStartHandlerSpan_NoParentLeavesContextUntouched(t *testing.T) {
	ctx := context.Background()
	got, span := startHandlerSpan(ctx, "ListLiveNow")
	defer span.End()

	if got != ctx {
		t.Fatalf("expected context to be returned unchanged")
	}
	if span.SpanContext().IsValid() {
		t.Fatalf("did not expect a root span for an untraced request")
	}
}

func TestRequestLogging_SkipsHealthAndMetricsPaths(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := RequestLogging(logging.FromZap(zap.New(core)), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for _, path := range []string{"/healthz", "/v1/matches/live", "/metrics"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("unexpected access log count: got=%d want=1", len(entries))
	}
	if got := entries[0].ContextMap()["path"]; got != "/v1/matches/live" {
		t.Fatalf("unexpected logged path: got=%v want=/v1/matches/live", got)
	}
	if got := entries[0].ContextMap()["status"]; got != int64(http.StatusNoContent) {
		t.Fatalf("unexpected logged status: got=%v want=%d", got, http.StatusNoContent)
	}
}
