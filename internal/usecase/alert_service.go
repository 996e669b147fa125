package usecase

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/goal-alerts/internal/domain/match"
	"github.com/riskibarqy/goal-alerts/internal/domain/notification"
	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
	"github.com/riskibarqy/goal-alerts/internal/platform/cache"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"github.com/riskibarqy/goal-alerts/internal/platform/metrics"
)

// Menu actions understood by the front-ends.
const (
	ActionHighlights = "dm"
	ActionLiveNow    = "now"
	ActionUpcoming   = "upcoming"
	ActionTestGoal   = "test_goal"
)

const liveSnapshotKey = "live"

type AlertServiceConfig struct {
	AdminRecipient       subscriber.RecipientID
	LiveFetchTimeout     time.Duration
	ScheduleFetchTimeout time.Duration
	LiveQueryCacheTTL    time.Duration
	ReminderWindow       ReminderWindow
	UpcomingLimit        int
	DisplayZone          *time.Location
}

func DefaultAlertServiceConfig() AlertServiceConfig {
	return AlertServiceConfig{
		LiveFetchTimeout:     5 * time.Second,
		ScheduleFetchTimeout: 10 * time.Second,
		LiveQueryCacheTTL:    15 * time.Second,
		ReminderWindow:       DefaultReminderWindow(),
		UpcomingLimit:        5,
		DisplayZone:          time.FixedZone("MSK", 3*60*60),
	}
}

// AlertService owns all engine state: the dedup cache, the reminder set and
// the latest schedule. The poller drives it; front-ends query it.
//
// The dedup cache and reminder set are only touched from the poller
// goroutine. The schedule and registry are read concurrently by front-ends
// and are guarded.
type AlertService struct {
	provider  match.Provider
	dedup     Deduplicator
	reminders *ReminderScheduler
	registry  subscriber.Registry
	notifier  *Notifier
	liveCache *cache.Store[[]match.Match]
	cfg       AlertServiceConfig
	logger    *logging.Logger
	metrics   *metrics.Metrics

	mu        sync.RWMutex
	scheduled []match.Fixture
}

func NewAlertService(
	provider match.Provider,
	registry subscriber.Registry,
	notifier *Notifier,
	cfg AlertServiceConfig,
	logger *logging.Logger,
	m *metrics.Metrics,
) (*AlertService, error) {
	if provider == nil || registry == nil || notifier == nil {
		return nil, crerr.Wrap(ErrInvalidInput, "provider, registry and notifier are required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	defaults := DefaultAlertServiceConfig()
	if cfg.LiveFetchTimeout <= 0 {
		cfg.LiveFetchTimeout = defaults.LiveFetchTimeout
	}
	if cfg.ScheduleFetchTimeout <= 0 {
		cfg.ScheduleFetchTimeout = defaults.ScheduleFetchTimeout
	}
	if cfg.LiveQueryCacheTTL <= 0 {
		cfg.LiveQueryCacheTTL = defaults.LiveQueryCacheTTL
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = defaults.UpcomingLimit
	}
	if cfg.DisplayZone == nil {
		cfg.DisplayZone = defaults.DisplayZone
	}

	dedup, err := NewDeduplicator(provider.Strategy())
	if err != nil {
		return nil, err
	}

	return &AlertService{
		provider:  provider,
		dedup:     dedup,
		reminders: NewReminderScheduler(cfg.ReminderWindow),
		registry:  registry,
		notifier:  notifier,
		liveCache: cache.NewStore[[]match.Match](cfg.LiveQueryCacheTTL),
		cfg:       cfg,
		logger:    logger.Named("alerts"),
		metrics:   m,
	}, nil
}

// RefreshLive fetches the live snapshot, detects new goals and delivers them.
func (s *AlertService) RefreshLive(ctx context.Context) []match.GoalEvent {
	ctx, span := startUsecaseSpan(ctx, "usecase.AlertService.RefreshLive")
	defer span.End()

	snapshot := s.fetchLive(ctx)
	s.liveCache.Set(liveSnapshotKey, snapshot)

	goals := s.dedup.Detect(snapshot)
	s.metrics.TrackedMatches(s.dedup.Tracked())
	s.metrics.GoalsDetected(string(s.dedup.Strategy()), len(goals))

	for _, goal := range goals {
		s.logger.InfoContext(ctx, "goal detected",
			"match_id", goal.MatchID,
			"key", goal.Key,
			"home", goal.Match.HomeTeam,
			"away", goal.Match.AwayTeam,
		)
		s.notifier.DeliverGoal(ctx, goal)
	}
	return goals
}

// RefreshSchedule replaces the scheduled fixture list.
func (s *AlertService) RefreshSchedule(ctx context.Context) int {
	ctx, span := startUsecaseSpan(ctx, "usecase.AlertService.RefreshSchedule")
	defer span.End()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.ScheduleFetchTimeout)
	defer cancel()
	fixtures := s.provider.FetchScheduled(fetchCtx)

	s.mu.Lock()
	s.scheduled = fixtures
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "schedule refreshed", "fixtures", len(fixtures))
	return len(fixtures)
}

// CheckReminders broadcasts one reminder listing every fixture that entered
// the window at now.
func (s *AlertService) CheckReminders(ctx context.Context, now time.Time) []match.Fixture {
	ctx, span := startUsecaseSpan(ctx, "usecase.AlertService.CheckReminders")
	defer span.End()

	due := s.reminders.Due(now, s.Scheduled())
	if len(due) == 0 {
		return nil
	}
	s.metrics.RemindersEmitted(len(due))

	text := RenderReminder(due)
	report := s.notifier.Broadcast(ctx, subscriber.TierReminder, func(recipient subscriber.RecipientID) notification.Message {
		return notification.Message{Text: text, Keyboard: s.Menu(recipient)}
	})
	s.logger.InfoContext(ctx, "reminders sent",
		"fixtures", len(due),
		"sent", report.Sent,
		"failed", report.Failed,
	)
	return due
}

// Scheduled returns a copy of the latest schedule.
func (s *AlertService) Scheduled() []match.Fixture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.scheduled)
}

// ListLiveNow renders the current live matches. Calls within the cache TTL,
// and concurrent calls, share a single upstream request.
func (s *AlertService) ListLiveNow(ctx context.Context) string {
	ctx, span := startUsecaseSpan(ctx, "usecase.AlertService.ListLiveNow")
	defer span.End()

	snapshot, err := s.liveCache.GetOrLoad(ctx, liveSnapshotKey, func(ctx context.Context) ([]match.Match, error) {
		return s.fetchLive(ctx), nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "load live snapshot failed", "error", err)
	}
	return RenderLiveNow(snapshot)
}

func (s *AlertService) ListUpcoming(ctx context.Context) string {
	_, span := startUsecaseSpan(ctx, "usecase.AlertService.ListUpcoming")
	defer span.End()

	return RenderUpcoming(s.Scheduled(), s.cfg.UpcomingLimit, s.cfg.DisplayZone)
}

func (s *AlertService) Subscribe(ctx context.Context, recipient subscriber.RecipientID, tier subscriber.Tier) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AlertService.Subscribe")
	defer span.End()

	if err := validateRecipient(recipient); err != nil {
		return err
	}
	if err := s.registry.Subscribe(ctx, recipient, tier); err != nil {
		if crerr.Is(err, subscriber.ErrUnknownTier) {
			return crerr.Mark(crerr.Wrapf(ErrInvalidInput, "unknown tier %q", tier), subscriber.ErrUnknownTier)
		}
		return crerr.Wrapf(err, "subscribe %s to %s", recipient, tier)
	}
	s.logger.InfoContext(ctx, "recipient subscribed", "recipient", recipient, "tier", tier)
	return nil
}

func (s *AlertService) Unsubscribe(ctx context.Context, recipient subscriber.RecipientID) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AlertService.Unsubscribe")
	defer span.End()

	if err := validateRecipient(recipient); err != nil {
		return err
	}
	if err := s.registry.UnsubscribeAll(ctx, recipient); err != nil {
		return crerr.Wrapf(err, "unsubscribe %s", recipient)
	}
	s.logger.InfoContext(ctx, "recipient unsubscribed", "recipient", recipient)
	return nil
}

func (s *AlertService) Tiers(ctx context.Context, recipient subscriber.RecipientID) ([]subscriber.Tier, error) {
	if err := validateRecipient(recipient); err != nil {
		return nil, err
	}
	return s.registry.TiersOf(ctx, recipient)
}

func (s *AlertService) IsAdmin(recipient subscriber.RecipientID) bool {
	return s.cfg.AdminRecipient != "" && recipient == s.cfg.AdminRecipient
}

// Menu is the reply keyboard offered with reminders and on start.
func (s *AlertService) Menu(recipient subscriber.RecipientID) *notification.Keyboard {
	kb := &notification.Keyboard{Rows: [][]notification.Button{
		{{Label: "📩 DM", Action: ActionHighlights}},
		{{Label: "🔴 Now", Action: ActionLiveNow}},
		{{Label: "📅 Upcoming", Action: ActionUpcoming}},
	}}
	if s.IsAdmin(recipient) {
		kb.Rows = append(kb.Rows, []notification.Button{{Label: "🧪 Test goal", Action: ActionTestGoal}})
	}
	return kb
}

// SendTestGoal pushes a synthetic goal through the goal tiers. Dedup state is
// left untouched.
func (s *AlertService) SendTestGoal(ctx context.Context, recipient subscriber.RecipientID) ([]DeliveryReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AlertService.SendTestGoal")
	defer span.End()

	if !s.IsAdmin(recipient) {
		return nil, crerr.Wrapf(ErrUnauthorized, "recipient %s is not the admin", recipient)
	}

	minute := 90
	fake := match.Match{
		ID:       999,
		HomeTeam: "Test FC",
		AwayTeam: "Mock United",
		Score:    &match.Score{Home: 1, Away: 0},
		Minute:   &minute,
		Status:   match.StatusSecondHalf,
	}
	goal := match.GoalEvent{
		MatchID: fake.ID,
		Minute:  fake.Minute,
		Key:     match.DedupKey(fake.ID, fake.Minute, nil),
		Match:   fake,
	}

	reports := s.notifier.DeliverGoal(ctx, goal)
	s.logger.InfoContext(ctx, "test goal sent", "admin", recipient)
	return reports, nil
}

// Close drops all in-memory engine state and releases the fan-out pool.
func (s *AlertService) Close() error {
	s.dedup.Reset()
	s.reminders.Reset()
	s.liveCache.Purge()

	s.mu.Lock()
	s.scheduled = nil
	s.mu.Unlock()

	s.notifier.Close()
	return nil
}

func (s *AlertService) fetchLive(ctx context.Context) []match.Match {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.LiveFetchTimeout)
	defer cancel()
	return s.provider.FetchLive(fetchCtx)
}

func validateRecipient(recipient subscriber.RecipientID) error {
	if strings.TrimSpace(string(recipient)) == "" {
		return crerr.Wrap(ErrInvalidInput, "recipient id is required")
	}
	return nil
}
