package console

import (
	"context"

	"github.com/riskibarqy/goal-alerts/internal/domain/notification"
	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
)

// Sender writes every message to the log instead of delivering it. Used by
// the `once` command and when no chat transport is configured.
type Sender struct {
	logger *logging.Logger
}

func NewSender(logger *logging.Logger) *Sender {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sender{logger: logger.Named("console")}
}

func (s *Sender) Send(ctx context.Context, recipient subscriber.RecipientID, msg notification.Message) error {
	buttons := 0
	if msg.Keyboard != nil {
		for _, row := range msg.Keyboard.Rows {
			buttons += len(row)
		}
	}
	s.logger.InfoContext(ctx, "notification",
		"recipient", recipient,
		"text", msg.Text,
		"buttons", buttons,
	)
	return nil
}
