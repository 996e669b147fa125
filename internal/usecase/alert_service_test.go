package usecase

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/goal-alerts/internal/domain/match"
	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
	"github.com/riskibarqy/goal-alerts/internal/infrastructure/repository/memory"
	matchmock "github.com/riskibarqy/goal-alerts/internal/mocks/domain/match"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testAdmin subscriber.RecipientID = "admin-1"

type alertFixture struct {
	service  *AlertService
	provider *matchmock.Provider
	registry *memory.SubscriberRegistry
	sender   *recordingSender
}

func newAlertFixture(t *testing.T, strategy match.Strategy) alertFixture {
	t.Helper()

	provider := matchmock.NewProvider(t)
	provider.On("Strategy").Return(strategy).Maybe()

	registry := memory.NewSubscriberRegistry()
	sender := newRecordingSender()
	notifier, err := NewNotifier(registry, sender, DefaultNotifierConfig(), logging.NewNop(), nil)
	require.NoError(t, err)

	cfg := DefaultAlertServiceConfig()
	cfg.AdminRecipient = testAdmin
	service, err := NewAlertService(provider, registry, notifier, cfg, logging.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = service.Close() })

	return alertFixture{service: service, provider: provider, registry: registry, sender: sender}
}

func TestAlertService_RefreshLive_ScoreDeltaDeliversToLiveAndHighlighted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAlertFixture(t, match.StrategyScoreDelta)
	subscribe(t, f.registry, subscriber.TierLive, "live-1")
	subscribe(t, f.registry, subscriber.TierHighlighted, "hl-1")

	f.provider.On("FetchLive", mock.Anything).Return([]match.Match{scoreMatch(100, 0, 0, intPtr(1))}).Once()
	f.provider.On("FetchLive", mock.Anything).Return([]match.Match{scoreMatch(100, 2, 0, intPtr(5))}).Once()

	if goals := f.service.RefreshLive(ctx); len(goals) != 0 {
		t.Fatalf("unexpected goals on baseline: got=%d want=0", len(goals))
	}
	goals := f.service.RefreshLive(ctx)
	if len(goals) != 2 {
		t.Fatalf("unexpected goal count: got=%d want=2", len(goals))
	}

	assert.Len(t, f.sender.messages("live-1"), 2)
	assert.Len(t, f.sender.messages("hl-1"), 2)
	assert.Equal(t, "⚽ GOAL!\nHome 2 : 0 Away\n⏱ 5 min", f.sender.messages("live-1")[0].Text)
}

func TestAlertService_RefreshLive_EventFeedRepeatKeyIsSilent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAlertFixture(t, match.StrategyEventID)
	subscribe(t, f.registry, subscriber.TierLive, "live-1")

	snapshot := []match.Match{eventMatch(100, match.Event{Type: match.EventGoal, Minute: intPtr(23), ScorerID: int64Ptr(55)})}
	f.provider.On("FetchLive", mock.Anything).Return([]match.Match{eventMatch(100)}).Once()
	f.provider.On("FetchLive", mock.Anything).Return(snapshot).Twice()

	require.Len(t, f.service.RefreshLive(ctx), 0)
	require.Len(t, f.service.RefreshLive(ctx), 1)
	require.Len(t, f.service.RefreshLive(ctx), 0)
	assert.Len(t, f.sender.messages("live-1"), 1)
}

func TestAlertService_RefreshLive_AppliesFetchTimeout(t *testing.T) {
	t.Parallel()

	f := newAlertFixture(t, match.StrategyScoreDelta)
	f.provider.
		On("FetchLive", mock.MatchedBy(func(ctx context.Context) bool {
			deadline, ok := ctx.Deadline()
			return ok && time.Until(deadline) <= 5*time.Second
		})).
		Return(nil).
		Once()

	f.service.RefreshLive(context.Background())
}

func TestAlertService_CheckReminders_BroadcastsWithMenu(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAlertFixture(t, match.StrategyScoreDelta)
	subscribe(t, f.registry, subscriber.TierReminder, "user-1", testAdmin)

	now := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	f.provider.On("FetchScheduled", mock.Anything).Return([]match.Fixture{
		{ID: 1, HomeTeam: "Roma", AwayTeam: "Lazio", Kickoff: now.Add(600 * time.Second)},
	}).Once()

	require.Equal(t, 1, f.service.RefreshSchedule(ctx))
	due := f.service.CheckReminders(ctx, now)
	require.Len(t, due, 1)
	require.Len(t, f.service.CheckReminders(ctx, now.Add(5*time.Second)), 0)

	userMsgs := f.sender.messages("user-1")
	require.Len(t, userMsgs, 1)
	assert.Equal(t, "⏰ Matches start in 10 minutes:\n\nRoma — Lazio", userMsgs[0].Text)
	require.NotNil(t, userMsgs[0].Keyboard)
	assert.Len(t, userMsgs[0].Keyboard.Rows, 3)

	adminMsgs := f.sender.messages(testAdmin)
	require.Len(t, adminMsgs, 1)
	assert.Len(t, adminMsgs[0].Keyboard.Rows, 4)
}

func TestAlertService_ListLiveNow_SharesCachedSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAlertFixture(t, match.StrategyScoreDelta)

	var calls atomic.Int32
	f.provider.On("FetchLive", mock.Anything).Return(func(context.Context) []match.Match {
		calls.Add(1)
		return []match.Match{scoreMatch(1, 1, 0, intPtr(30))}
	})

	first := f.service.ListLiveNow(ctx)
	second := f.service.ListLiveNow(ctx)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "🔴 LIVE now:"))
	assert.EqualValues(t, 1, calls.Load())
}

func TestAlertService_ListUpcoming(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAlertFixture(t, match.StrategyScoreDelta)
	assert.Equal(t, textNoUpcomingMatches, f.service.ListUpcoming(ctx))

	f.provider.On("FetchScheduled", mock.Anything).Return([]match.Fixture{
		{ID: 1, HomeTeam: "A", AwayTeam: "B", Kickoff: time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)},
	}).Once()
	f.service.RefreshSchedule(ctx)

	assert.Equal(t, "📅 Upcoming matches:\n\nA — B\n🕒 10.05 18:00 MSK", f.service.ListUpcoming(ctx))
}

func TestAlertService_SubscribeValidatesInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAlertFixture(t, match.StrategyScoreDelta)

	err := f.service.Subscribe(ctx, " ", subscriber.TierLive)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	err = f.service.Subscribe(ctx, "u", subscriber.Tier("vip"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown tier, got %v", err)
	}
	if !crerr.Is(err, subscriber.ErrUnknownTier) {
		t.Fatalf("expected unknown tier mark, got %v", err)
	}

	require.NoError(t, f.service.Subscribe(ctx, "u", subscriber.TierLive))
	require.NoError(t, f.service.Subscribe(ctx, "u", subscriber.TierHighlighted))
	tiers, err := f.service.Tiers(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []subscriber.Tier{subscriber.TierHighlighted}, tiers)

	require.NoError(t, f.service.Unsubscribe(ctx, "u"))
	tiers, err = f.service.Tiers(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, tiers)
}

func TestAlertService_SendTestGoal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newAlertFixture(t, match.StrategyScoreDelta)
	subscribe(t, f.registry, subscriber.TierLive, "live-1")

	_, err := f.service.SendTestGoal(ctx, "someone")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	reports, err := f.service.SendTestGoal(ctx, testAdmin)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Sent)
	assert.Equal(t, "⚽ GOAL!\nTest FC 1 : 0 Mock United\n⏱ 90 min", f.sender.messages("live-1")[0].Text)
}
