package observability

import (
	"context"
	"testing"

	"github.com/riskibarqy/goal-alerts/internal/config"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
)

func TestInitUptrace_Disabled(t *testing.T) {
	cfg := config.Config{
		ServiceName:    "goal-alerts",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}

	shutdown, err := InitUptrace(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("init uptrace: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown uptrace: %v", err)
	}
}

func TestInitPyroscope_Disabled(t *testing.T) {
	stop, err := InitPyroscope(config.Config{}, logging.NewNop())
	if err != nil {
		t.Fatalf("init pyroscope: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("stop pyroscope: %v", err)
	}
}

func TestPprofServer(t *testing.T) {
	t.Parallel()

	if srv := NewPprofServer(config.Config{}); srv != nil {
		t.Fatalf("expected no pprof server when disabled")
	}
	if err := ServePprof(context.Background(), nil, logging.NewNop()); err != nil {
		t.Fatalf("serve nil pprof server: %v", err)
	}

	cfg := config.Config{Telemetry: config.TelemetryConfig{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}}
	srv := NewPprofServer(cfg)
	if srv == nil || srv.Addr != "127.0.0.1:0" {
		t.Fatalf("unexpected pprof server: %+v", srv)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ServePprof(ctx, srv, logging.NewNop()); err != nil {
		t.Fatalf("serve pprof: %v", err)
	}
}
