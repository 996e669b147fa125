package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/goal-alerts/external/footballdata"
	"github.com/riskibarqy/goal-alerts/external/sportmonks"
	"github.com/riskibarqy/goal-alerts/internal/config"
	"github.com/riskibarqy/goal-alerts/internal/domain/match"
	"github.com/riskibarqy/goal-alerts/internal/domain/notification"
	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
	"github.com/riskibarqy/goal-alerts/internal/infrastructure/messaging/console"
	"github.com/riskibarqy/goal-alerts/internal/infrastructure/messaging/discord"
	"github.com/riskibarqy/goal-alerts/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/goal-alerts/internal/interfaces/discordbot"
	"github.com/riskibarqy/goal-alerts/internal/interfaces/httpapi"
	"github.com/riskibarqy/goal-alerts/internal/platform/id"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"github.com/riskibarqy/goal-alerts/internal/platform/metrics"
	"github.com/riskibarqy/goal-alerts/internal/platform/resilience"
	"github.com/riskibarqy/goal-alerts/internal/usecase"
	"github.com/sourcegraph/conc/pool"
)

const httpShutdownTimeout = 10 * time.Second

// App is the fully wired engine: one provider, one alert service, the poller
// driving it and the front-ends querying it.
type App struct {
	logger *logging.Logger
	alerts *usecase.AlertService
	poller *usecase.Poller
	server *http.Server
	bot    *discordbot.Bot
}

type options struct {
	sender   notification.Sender
	provider match.Provider
	clock    clockwork.Clock
	noChat   bool
}

type Option func(*options)

// WithSender replaces the configured chat transport.
func WithSender(sender notification.Sender) Option {
	return func(o *options) { o.sender = sender }
}

func WithProvider(provider match.Provider) Option {
	return func(o *options) { o.provider = provider }
}

func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithoutChat skips the Discord gateway even when it is enabled; messages go
// to the log instead.
func WithoutChat() Option {
	return func(o *options) { o.noChat = true }
}

func New(cfg config.Config, logger *logging.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	provider := o.provider
	if provider == nil {
		var err error
		if provider, err = NewProvider(cfg, logger, m); err != nil {
			return nil, err
		}
	}

	registry := memory.NewSubscriberRegistry()

	sender := o.sender
	var session *discordgo.Session
	if sender == nil {
		if cfg.Discord.Enabled && !o.noChat {
			s, err := discordbot.NewSession(cfg.Discord.BotToken)
			if err != nil {
				return nil, err
			}
			session = s
			sender = discord.NewSender(s)
		} else {
			sender = console.NewSender(logger)
		}
	}

	notifier, err := usecase.NewNotifier(registry, sender, usecase.NotifierConfig{
		SendTimeout:      cfg.Alerts.SendTimeout,
		Workers:          cfg.Alerts.FanoutWorkers,
		HighlightWindows: highlightWindows(cfg.Alerts.HighlightWindows),
	}, logger.Named("fanout"), m)
	if err != nil {
		return nil, err
	}

	alerts, err := usecase.NewAlertService(provider, registry, notifier, usecase.AlertServiceConfig{
		AdminRecipient:       subscriber.RecipientID(cfg.Alerts.AdminRecipientID),
		LiveFetchTimeout:     cfg.Alerts.LiveFetchTimeout,
		ScheduleFetchTimeout: cfg.Alerts.ScheduleFetchTimeout,
		LiveQueryCacheTTL:    cfg.Alerts.LiveQueryCacheTTL,
		ReminderWindow: usecase.ReminderWindow{
			Min: cfg.Alerts.ReminderWindowMin,
			Max: cfg.Alerts.ReminderWindowMax,
		},
		UpcomingLimit: cfg.Alerts.UpcomingLimit,
		DisplayZone:   cfg.Alerts.DisplayZone,
	}, logger, m)
	if err != nil {
		notifier.Close()
		return nil, err
	}

	poller, err := usecase.NewPoller(alerts, usecase.PollerConfig{
		Tick:              cfg.Poll.Tick,
		LiveThreshold:     cfg.Poll.LiveThreshold,
		ScheduleThreshold: cfg.Poll.ScheduleThreshold,
	}, o.clock, id.NewUUIDGenerator(), logger, m)
	if err != nil {
		_ = alerts.Close()
		return nil, err
	}

	server, err := newHTTPServer(cfg, alerts, logger, m)
	if err != nil {
		_ = alerts.Close()
		return nil, err
	}

	a := &App{
		logger: logger,
		alerts: alerts,
		poller: poller,
		server: server,
	}
	if session != nil {
		a.bot = discordbot.New(session, alerts, cfg.Discord.GuildID, logger)
	}
	return a, nil
}

// NewProvider builds the configured upstream feed. Both share the breaker
// settings and report state changes to the log.
func NewProvider(cfg config.Config, logger *logging.Logger, m *metrics.Metrics) (match.Provider, error) {
	breaker := resilience.CircuitBreakerConfig{
		Enabled:          cfg.Provider.CircuitEnabled,
		FailureThreshold: cfg.Provider.CircuitFailureCount,
		OpenTimeout:      cfg.Provider.CircuitOpenTimeout,
		HalfOpenMaxReq:   cfg.Provider.CircuitHalfOpenMaxReq,
		OnStateChange: func(name string, from, to resilience.CircuitState) {
			logger.Warn("provider circuit state changed", "provider", name, "from", from, "to", to)
		},
	}

	switch cfg.Provider.Name {
	case config.ProviderFootballData:
		return footballdata.NewClient(footballdata.ClientConfig{
			BaseURL:           cfg.Provider.FootballDataBaseURL,
			Token:             cfg.Provider.FootballDataToken,
			RequestsPerMinute: cfg.Provider.FootballDataRPM,
			Timeout:           cfg.Alerts.ScheduleFetchTimeout,
			Logger:            logger,
			Metrics:           m,
			CircuitBreaker:    breaker,
		}), nil
	case config.ProviderSportMonks:
		return sportmonks.NewClient(sportmonks.ClientConfig{
			BaseURL:        cfg.Provider.SportMonksBaseURL,
			Token:          cfg.Provider.SportMonksToken,
			Timeout:        cfg.Alerts.ScheduleFetchTimeout,
			MaxRetries:     cfg.Provider.SportMonksMaxRetries,
			Logger:         logger,
			Metrics:        m,
			CircuitBreaker: breaker,
		}), nil
	default:
		return nil, crerr.Wrapf(usecase.ErrInvalidInput, "unknown provider %q", cfg.Provider.Name)
	}
}

func (a *App) Alerts() *usecase.AlertService {
	return a.alerts
}

func (a *App) Poller() *usecase.Poller {
	return a.poller
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run supervises the poller, the HTTP server and, when enabled, the Discord
// bot. The first failure cancels the others; a cancelled ctx stops all of
// them cleanly.
func (a *App) Run(ctx context.Context) error {
	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()

	p.Go(a.poller.Run)
	p.Go(a.serveHTTP)
	if a.bot != nil {
		p.Go(a.bot.Run)
	}

	return p.Wait()
}

// Close releases engine state. Call once Run has returned.
func (a *App) Close() error {
	return a.alerts.Close()
}

func (a *App) serveHTTP(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- crerr.Wrap(err, "http server")
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return crerr.Wrap(err, "graceful http shutdown")
	}
	a.logger.Info("http server stopped")
	return nil
}

func newHTTPServer(cfg config.Config, alerts *usecase.AlertService, logger *logging.Logger, m *metrics.Metrics) (*http.Server, error) {
	if cfg.HTTPAddr == "" {
		return nil, crerr.New("http server addr cannot be empty")
	}

	var metricsHandler http.Handler
	if m != nil {
		metricsHandler = m.Handler()
	}

	handler := httpapi.NewHandler(alerts, logger)
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, logger, metricsHandler, cfg.AdminAPIToken),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}, nil
}

// highlightWindows keeps nil as "use the defaults" and an empty list as
// "highlighted tier disabled".
func highlightWindows(ranges []config.MinuteRange) []usecase.HighlightWindow {
	if ranges == nil {
		return nil
	}
	out := make([]usecase.HighlightWindow, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, usecase.HighlightWindow{From: r.From, To: r.To})
	}
	return out
}
