package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"github.com/riskibarqy/goal-alerts/internal/platform/resilience"
	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

func TestShouldSkipUptraceLog(t *testing.T) {
	t.Parallel()

	if !shouldSkipUptraceLog(logging.LevelDebug, "poll cycle finished") {
		t.Fatalf("expected per-cycle debug log to be skipped")
	}
	if shouldSkipUptraceLog(logging.LevelInfo, "goal detected") {
		t.Fatalf("did not expect goal log to be skipped")
	}
	if shouldSkipUptraceLog(logging.LevelWarn, "schedule refreshed") {
		t.Fatalf("did not expect warn level log to be skipped")
	}
}

func TestBuildOTelLogAttributes(t *testing.T) {
	t.Parallel()

	attrs := buildOTelLogAttributes([]any{"match_id", int64(100), "key", "100_23_55", "tier"})
	if len(attrs) != 3 {
		t.Fatalf("unexpected attribute count: got=%d want=3", len(attrs))
	}
	if attrs[0].Key != "goal.match_id" || attrs[0].Value.AsInt64() != 100 {
		t.Fatalf("unexpected match_id attribute: %+v", attrs[0])
	}
	if attrs[1].Key != "goal.key" || attrs[1].Value.AsString() != "100_23_55" {
		t.Fatalf("unexpected key attribute: %+v", attrs[1])
	}
	if attrs[2].Key != "subscriber.tier" || attrs[2].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected dangling attribute: %+v", attrs[2])
	}
}

func TestBuildOTelLogAttributes_UnknownKeysPassThrough(t *testing.T) {
	t.Parallel()

	attrs := buildOTelLogAttributes([]any{"action", "subscribe", 42, "orphan"})
	if len(attrs) != 2 {
		t.Fatalf("unexpected attribute count: got=%d want=2", len(attrs))
	}
	if attrs[0].Key != "action" {
		t.Fatalf("unexpected key: got=%s want=action", attrs[0].Key)
	}
	if attrs[1].Key != "arg_1" {
		t.Fatalf("unexpected key for non-string key: got=%s want=arg_1", attrs[1].Key)
	}
}

func TestToOTelLogValue_NamedDomainTypes(t *testing.T) {
	t.Parallel()

	if got := toOTelLogValue(subscriber.TierHighlighted, 0); got.Kind() != otellog.KindString || got.AsString() != string(subscriber.TierHighlighted) {
		t.Fatalf("unexpected tier value: got=%v want=%s", got, subscriber.TierHighlighted)
	}
	if got := toOTelLogValue(subscriber.RecipientID("chat-1"), 0); got.AsString() != "chat-1" {
		t.Fatalf("unexpected recipient value: got=%v want=chat-1", got)
	}
	if got := toOTelLogValue(resilience.CircuitState("open"), 0); got.AsString() != "open" {
		t.Fatalf("unexpected breaker state value: got=%v want=open", got)
	}
	if got := toOTelLogValue(uint64(1)<<63, 0); got.Kind() != otellog.KindString {
		t.Fatalf("expected overflowing uint to be stringified, got kind=%s", got.Kind())
	}
}

func TestToOTelLogValue(t *testing.T) {
	t.Parallel()

	minute := 58
	tests := []struct {
		name  string
		value any
		kind  otellog.Kind
	}{
		{name: "duration", value: 1500 * time.Millisecond, kind: otellog.KindString},
		{name: "error", value: errors.New("boom"), kind: otellog.KindString},
		{name: "pointer", value: &minute, kind: otellog.KindInt64},
		{name: "nil pointer", value: (*int)(nil), kind: otellog.KindEmpty},
		{name: "slice", value: []string{"live", "highlighted"}, kind: otellog.KindSlice},
		{name: "map", value: map[string]any{"sent": 3, "failed": 0}, kind: otellog.KindMap},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := toOTelLogValue(tc.value, 0).Kind(); got != tc.kind {
				t.Fatalf("unexpected kind: got=%s want=%s", got, tc.kind)
			}
		})
	}
}

func TestToOTelSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level logging.Level
		want  otellog.Severity
	}{
		{level: logging.LevelDebug, want: otellog.SeverityDebug},
		{level: logging.LevelInfo, want: otellog.SeverityInfo},
		{level: logging.LevelWarn, want: otellog.SeverityWarn},
		{level: logging.LevelError, want: otellog.SeverityError},
		{level: zapcore.FatalLevel, want: otellog.SeverityFatal},
	}
	for _, tc := range tests {
		if got := toOTelSeverity(tc.level); got != tc.want {
			t.Fatalf("toOTelSeverity(%s) got=%v want=%v", tc.level, got, tc.want)
		}
	}
}
