package logging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_WritesKeyValueFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core))

	logger.Warn("provider fetch failed", "provider", "footballdata", "error", errors.New("timeout"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("unexpected entry count: got=%d want=1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["provider"] != "footballdata" {
		t.Fatalf("unexpected provider field: got=%v", fields["provider"])
	}
	if fields["error"] != "timeout" {
		t.Fatalf("unexpected error field: got=%v", fields["error"])
	}
}

func TestLogger_OddArgsKeepsDanglingKey(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core))

	logger.Info("odd", "match_id")

	fields := logs.All()[0].ContextMap()
	if _, ok := fields["match_id"]; !ok {
		t.Fatalf("expected dangling key to be kept, got=%v", fields)
	}
}

func TestLogger_MirrorReceivesRecords(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	logger := FromZap(zap.New(core))

	var got []string
	SetMirror(func(_ context.Context, level Level, msg string, _ ...any) {
		got = append(got, level.String()+":"+msg)
	})
	t.Cleanup(func() { SetMirror(nil) })

	logger.Debug("filtered out")
	logger.InfoContext(context.Background(), "goal detected", "match_id", 100)

	if len(got) != 1 || got[0] != "info:goal detected" {
		t.Fatalf("unexpected mirrored records: %v", got)
	}
}

func TestLogger_NilReceiverFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	if logger.With("k", "v") == nil {
		t.Fatalf("expected non-nil child logger")
	}
}
