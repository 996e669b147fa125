package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/goal-alerts/internal/domain/match"
	"github.com/riskibarqy/goal-alerts/internal/platform/id"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

type countingTarget struct {
	mu        sync.Mutex
	live      int
	schedule  int
	reminders int
	lastNow   time.Time
}

func (c *countingTarget) RefreshLive(context.Context) []match.GoalEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live++
	return nil
}

func (c *countingTarget) RefreshSchedule(context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schedule++
	return 0
}

func (c *countingTarget) CheckReminders(_ context.Context, now time.Time) []match.Fixture {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reminders++
	c.lastNow = now
	return nil
}

func (c *countingTarget) counts() (int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live, c.schedule, c.reminders
}

func TestPollerConfig_ValidateRejectsSlowTick(t *testing.T) {
	t.Parallel()

	cfg := DefaultPollerConfig()
	cfg.Tick = 30 * time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error when tick is not shorter than live threshold")
	}
	if _, err := NewPoller(&countingTarget{}, cfg, nil, nil, logging.NewNop(), nil); err == nil {
		t.Fatalf("expected NewPoller to reject config")
	}
}

func TestPoller_CycleThresholds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC))
	target := &countingTarget{}
	poller, err := NewPoller(target, DefaultPollerConfig(), clock, id.NewSequence("cycle"), logging.NewNop(), nil)
	require.NoError(t, err)

	first := poller.Cycle(ctx)
	if first.ID != "cycle-1" || !first.LiveRefreshed || !first.ScheduleRefreshed {
		t.Fatalf("unexpected first cycle: got=%+v", first)
	}

	// Five more 5s ticks: live fires again at 30s, schedule does not.
	for range 6 {
		clock.Advance(5 * time.Second)
		poller.Cycle(ctx)
	}
	live, schedule, reminders := target.counts()
	if live != 2 || schedule != 1 || reminders != 7 {
		t.Fatalf("unexpected counts: got=%d/%d/%d want=2/1/7", live, schedule, reminders)
	}

	clock.Advance(10 * time.Minute)
	res := poller.Cycle(ctx)
	if !res.LiveRefreshed || !res.ScheduleRefreshed {
		t.Fatalf("expected both refreshes after schedule threshold: got=%+v", res)
	}
	if !target.lastNow.Equal(clock.Now()) {
		t.Fatalf("unexpected reminder time: got=%s want=%s", target.lastNow, clock.Now())
	}
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewFakeClock()
	target := &countingTarget{}
	poller, err := NewPoller(target, DefaultPollerConfig(), clock, id.NewSequence("run"), logging.NewNop(), nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(5 * time.Second)

	require.Eventually(t, func() bool {
		_, _, reminders := target.counts()
		return reminders >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("poller did not stop after cancel")
	}
}
