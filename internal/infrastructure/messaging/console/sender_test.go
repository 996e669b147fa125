package console

import (
	"context"
	"testing"

	"github.com/riskibarqy/goal-alerts/internal/domain/notification"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSender_LogsMessage(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	sender := NewSender(logging.FromZap(zap.New(core)))

	msg := notification.Message{
		Text:     "⚽ GOAL!",
		Keyboard: &notification.Keyboard{Rows: [][]notification.Button{{{Label: "a"}, {Label: "b"}}}},
	}
	if err := sender.Send(context.Background(), "chat-1", msg); err != nil {
		t.Fatalf("send: %v", err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("unexpected entry count: got=%d want=1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["text"] != "⚽ GOAL!" {
		t.Fatalf("unexpected text field: got=%v", fields["text"])
	}
	if fields["buttons"] != int64(2) {
		t.Fatalf("unexpected buttons field: got=%v (%T)", fields["buttons"], fields["buttons"])
	}
}
