package notification

import (
	"context"

	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
)

// Sender delivers one message to one recipient through a messaging front-end.
type Sender interface {
	Send(ctx context.Context, recipient subscriber.RecipientID, msg Message) error
}
