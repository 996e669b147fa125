package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/goal-alerts/internal/domain/match"
	"github.com/riskibarqy/goal-alerts/internal/domain/notification"
	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"github.com/riskibarqy/goal-alerts/internal/platform/metrics"
)

// HighlightWindow is an inclusive minute range in which a goal also goes to
// the highlighted tier.
type HighlightWindow struct {
	From int
	To   int
}

func DefaultHighlightWindows() []HighlightWindow {
	return []HighlightWindow{{From: 2, To: 11}, {From: 69, To: 72}}
}

// InHighlightWindow reports whether minute falls in any window. An unknown
// minute never qualifies.
func InHighlightWindow(minute *int, windows []HighlightWindow) bool {
	if minute == nil {
		return false
	}
	for _, w := range windows {
		if *minute >= w.From && *minute <= w.To {
			return true
		}
	}
	return false
}

type NotifierConfig struct {
	SendTimeout      time.Duration
	Workers          int
	HighlightWindows []HighlightWindow
}

func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		SendTimeout:      5 * time.Second,
		Workers:          1,
		HighlightWindows: DefaultHighlightWindows(),
	}
}

// MessageFor builds the payload for one recipient of a broadcast.
type MessageFor func(recipient subscriber.RecipientID) notification.Message

// Static sends the same message to everyone.
func Static(msg notification.Message) MessageFor {
	return func(subscriber.RecipientID) notification.Message { return msg }
}

type DeliveryReport struct {
	Tier   subscriber.Tier
	Sent   int
	Failed int
}

// Notifier fans a message out to every member of a tier. A failed recipient
// is logged and skipped. Delivery is sequential unless Workers > 1, in which
// case an ants pool bounds the number of concurrent sends.
type Notifier struct {
	registry subscriber.Registry
	sender   notification.Sender
	cfg      NotifierConfig
	pool     *ants.Pool
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

func NewNotifier(
	registry subscriber.Registry,
	sender notification.Sender,
	cfg NotifierConfig,
	logger *logging.Logger,
	m *metrics.Metrics,
) (*Notifier, error) {
	if logger == nil {
		logger = logging.Default()
	}
	defaults := DefaultNotifierConfig()
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaults.SendTimeout
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaults.Workers
	}
	if cfg.HighlightWindows == nil {
		cfg.HighlightWindows = defaults.HighlightWindows
	}

	n := &Notifier{
		registry: registry,
		sender:   sender,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
	}
	if cfg.Workers > 1 {
		pool, err := ants.NewPool(cfg.Workers)
		if err != nil {
			return nil, crerr.Wrap(err, "create fan-out worker pool")
		}
		n.pool = pool
	}
	return n, nil
}

// DeliverGoal sends goal to the live tier and, inside a highlight window, to
// the highlighted tier.
func (n *Notifier) DeliverGoal(ctx context.Context, goal match.GoalEvent) []DeliveryReport {
	ctx, span := startUsecaseSpan(ctx, "usecase.Notifier.DeliverGoal")
	defer span.End()

	msg := Static(notification.Message{Text: RenderGoal(goal)})
	reports := []DeliveryReport{n.Broadcast(ctx, subscriber.TierLive, msg)}
	if InHighlightWindow(goal.Minute, n.cfg.HighlightWindows) {
		reports = append(reports, n.Broadcast(ctx, subscriber.TierHighlighted, msg))
	}
	return reports
}

func (n *Notifier) Broadcast(ctx context.Context, tier subscriber.Tier, build MessageFor) DeliveryReport {
	ctx, span := startUsecaseSpan(ctx, "usecase.Notifier.Broadcast")
	defer span.End()

	report := DeliveryReport{Tier: tier}
	recipients, err := n.registry.Members(ctx, tier)
	if err != nil {
		n.logger.ErrorContext(ctx, "list tier members failed", "tier", tier, "error", err)
		return report
	}
	if len(recipients) == 0 {
		return report
	}

	if n.pool == nil {
		for _, recipient := range recipients {
			if n.deliver(ctx, tier, recipient, build(recipient)) {
				report.Sent++
			} else {
				report.Failed++
			}
		}
		return report
	}

	var sent, failed atomic.Int64
	var wg sync.WaitGroup
	for _, recipient := range recipients {
		task := func() {
			defer wg.Done()
			if n.deliver(ctx, tier, recipient, build(recipient)) {
				sent.Add(1)
			} else {
				failed.Add(1)
			}
		}
		wg.Add(1)
		if err := n.pool.Submit(task); err != nil {
			n.logger.WarnContext(ctx, "fan-out pool rejected task, sending inline", "tier", tier, "error", err)
			task()
		}
	}
	wg.Wait()

	report.Sent = int(sent.Load())
	report.Failed = int(failed.Load())
	return report
}

func (n *Notifier) deliver(ctx context.Context, tier subscriber.Tier, recipient subscriber.RecipientID, msg notification.Message) bool {
	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.SendTimeout)
	defer cancel()

	if err := n.sender.Send(sendCtx, recipient, msg); err != nil {
		n.logger.WarnContext(ctx, "delivery failed",
			"tier", tier,
			"recipient", recipient,
			"error", crerr.Mark(err, ErrDelivery),
		)
		n.metrics.Delivery(string(tier), false)
		return false
	}
	n.metrics.Delivery(string(tier), true)
	return true
}

// Close releases the worker pool, if any.
func (n *Notifier) Close() {
	if n.pool != nil {
		n.pool.Release()
	}
}
