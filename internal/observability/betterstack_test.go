package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/goal-alerts/internal/config"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
)

func TestInitBetterStackLogger_SendsErrorLog(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	requestCount := 0
	var lastAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requestCount++
		lastAuth = r.Header.Get("Authorization")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	baseLogger := logging.NewNop()
	cfg := config.Config{
		ServiceName: "goal-alerts",
		AppEnv:      config.EnvDev,
		Telemetry: config.TelemetryConfig{
			BetterStackEnabled:  true,
			BetterStackEndpoint: server.URL,
			BetterStackToken:    "secret-token",
			BetterStackTimeout:  2 * time.Second,
			BetterStackMinLevel: logging.LevelError,
		},
	}

	logger, shutdown, err := InitBetterStackLogger(cfg, baseLogger)
	if err != nil {
		t.Fatalf("init betterstack logger: %v", err)
	}

	logger.ErrorContext(context.Background(), "delivery failed", "tier", "live", "recipient", "42")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown logger: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if requestCount == 0 {
		t.Fatalf("expected Better Stack endpoint to receive at least 1 request")
	}
	if lastAuth != "Bearer secret-token" {
		t.Fatalf("unexpected authorization header: %q", lastAuth)
	}
}

func TestInitBetterStackLogger_RespectsMinLevel(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requestCount++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	baseLogger := logging.NewNop()
	cfg := config.Config{
		ServiceName: "goal-alerts",
		AppEnv:      config.EnvDev,
		Telemetry: config.TelemetryConfig{
			BetterStackEnabled:  true,
			BetterStackEndpoint: server.URL,
			BetterStackTimeout:  2 * time.Second,
			BetterStackMinLevel: logging.LevelError,
		},
	}

	logger, shutdown, err := InitBetterStackLogger(cfg, baseLogger)
	if err != nil {
		t.Fatalf("init betterstack logger: %v", err)
	}

	logger.InfoContext(context.Background(), "goal detected", "match_id", int64(100))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown logger: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if requestCount != 0 {
		t.Fatalf("expected no request for info log, got %d", requestCount)
	}
}

func TestInitBetterStackLogger_BatchesRecordsWithServiceFields(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var batches [][]map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch []map[string]any
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&batch); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		mu.Lock()
		batches = append(batches, batch)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	cfg := config.Config{
		ServiceName: "goal-alerts",
		AppEnv:      config.EnvProd,
		Provider:    config.ProviderConfig{Name: config.ProviderSportMonks},
		Telemetry: config.TelemetryConfig{
			BetterStackEnabled:  true,
			BetterStackEndpoint: server.URL,
			BetterStackTimeout:  2 * time.Second,
			BetterStackMinLevel: logging.LevelWarn,
		},
	}

	logger, shutdown, err := InitBetterStackLogger(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("init betterstack logger: %v", err)
	}

	ctx := context.Background()
	logger.WarnContext(ctx, "delivery failed", "tier", "live", "recipient", "42")
	logger.WarnContext(ctx, "delivery failed", "tier", "highlighted", "recipient", "43")
	logger.WarnContext(ctx, "skip malformed fixture", "fixture_id", int64(7))

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown logger: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	var records []map[string]any
	for _, batch := range batches {
		records = append(records, batch...)
	}
	if len(records) != 3 {
		t.Fatalf("unexpected shipped record count: got=%d want=3", len(records))
	}
	if len(batches) > 3 {
		t.Fatalf("expected records to share batches: got=%d requests", len(batches))
	}
	for _, record := range records {
		if record["service"] != "goal-alerts" || record["env"] != config.EnvProd || record["provider"] != config.ProviderSportMonks {
			t.Fatalf("missing service fields on record: %v", record)
		}
	}
}

func TestBetterStackURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "  s1.eu-fsn-3.betterstackdata.com ", want: "https://s1.eu-fsn-3.betterstackdata.com"},
		{in: "http://localhost:9000", want: "http://localhost:9000"},
		{in: "https://in.logs.betterstack.com", want: "https://in.logs.betterstack.com"},
	}
	for _, tc := range tests {
		if got := betterStackURL(tc.in); got != tc.want {
			t.Fatalf("betterStackURL(%q) got=%q want=%q", tc.in, got, tc.want)
		}
	}
}
