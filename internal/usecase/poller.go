package usecase

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/goal-alerts/internal/domain/match"
	"github.com/riskibarqy/goal-alerts/internal/platform/id"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"github.com/riskibarqy/goal-alerts/internal/platform/metrics"
	"go.opentelemetry.io/otel/attribute"
)

// PollTarget is the part of AlertService the loop drives.
type PollTarget interface {
	RefreshLive(ctx context.Context) []match.GoalEvent
	RefreshSchedule(ctx context.Context) int
	CheckReminders(ctx context.Context, now time.Time) []match.Fixture
}

type PollerConfig struct {
	Tick              time.Duration
	LiveThreshold     time.Duration
	ScheduleThreshold time.Duration
}

func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Tick:              5 * time.Second,
		LiveThreshold:     30 * time.Second,
		ScheduleThreshold: 10 * time.Minute,
	}
}

func (c PollerConfig) Validate() error {
	if c.Tick <= 0 {
		return crerr.Wrap(ErrInvalidInput, "poll tick must be > 0")
	}
	if c.LiveThreshold <= 0 || c.ScheduleThreshold <= 0 {
		return crerr.Wrap(ErrInvalidInput, "poll thresholds must be > 0")
	}
	if c.Tick >= c.LiveThreshold {
		return crerr.Wrapf(ErrInvalidInput, "poll tick %s must be shorter than live threshold %s", c.Tick, c.LiveThreshold)
	}
	return nil
}

type CycleResult struct {
	ID                string
	LiveRefreshed     bool
	Goals             int
	ScheduleRefreshed bool
	Fixtures          int
	Reminders         int
	Duration          time.Duration
}

// Poller runs the single periodic loop. Each cycle refreshes live data once
// the live threshold has elapsed, the schedule once the schedule threshold
// has elapsed, and always checks reminders. Elapsed time is reset whether or
// not the fetch succeeded.
type Poller struct {
	target  PollTarget
	cfg     PollerConfig
	clock   clockwork.Clock
	ids     id.Generator
	logger  *logging.Logger
	metrics *metrics.Metrics

	lastLive     time.Time
	lastSchedule time.Time
}

func NewPoller(
	target PollTarget,
	cfg PollerConfig,
	clock clockwork.Clock,
	ids id.Generator,
	logger *logging.Logger,
	m *metrics.Metrics,
) (*Poller, error) {
	if target == nil {
		return nil, crerr.Wrap(ErrInvalidInput, "poll target is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Poller{
		target:  target,
		cfg:     cfg,
		clock:   clock,
		ids:     ids,
		logger:  logger.Named("poller"),
		metrics: m,
	}, nil
}

// Cycle runs one iteration. The first cycle always refreshes both feeds.
func (p *Poller) Cycle(ctx context.Context) CycleResult {
	start := p.clock.Now()
	result := CycleResult{ID: p.ids.NewID()}

	ctx, span := usecaseTracer.Start(ctx, "usecase.Poller.Cycle")
	span.SetAttributes(attribute.String("cycle.id", result.ID))
	defer span.End()

	if p.lastLive.IsZero() || start.Sub(p.lastLive) >= p.cfg.LiveThreshold {
		result.LiveRefreshed = true
		result.Goals = len(p.target.RefreshLive(ctx))
		p.lastLive = start
	}
	if p.lastSchedule.IsZero() || start.Sub(p.lastSchedule) >= p.cfg.ScheduleThreshold {
		result.ScheduleRefreshed = true
		result.Fixtures = p.target.RefreshSchedule(ctx)
		p.lastSchedule = start
	}
	result.Reminders = len(p.target.CheckReminders(ctx, p.clock.Now()))

	result.Duration = p.clock.Since(start)
	p.metrics.ObserveCycle(result.Duration)
	span.SetAttributes(
		attribute.Int("cycle.goals", result.Goals),
		attribute.Int("cycle.reminders", result.Reminders),
	)

	if result.LiveRefreshed || result.ScheduleRefreshed || result.Reminders > 0 {
		p.logger.DebugContext(ctx, "poll cycle finished",
			"cycle_id", result.ID,
			"live", result.LiveRefreshed,
			"goals", result.Goals,
			"schedule", result.ScheduleRefreshed,
			"fixtures", result.Fixtures,
			"reminders", result.Reminders,
			"duration", result.Duration,
		)
	}
	return result
}

// Run cycles immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.cfg.Tick)
	defer ticker.Stop()

	p.logger.InfoContext(ctx, "poller started",
		"tick", p.cfg.Tick,
		"live_threshold", p.cfg.LiveThreshold,
		"schedule_threshold", p.cfg.ScheduleThreshold,
	)

	p.Cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, "poller stopped")
			return nil
		case <-ticker.Chan():
			p.Cycle(ctx)
		}
	}
}
