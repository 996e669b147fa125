package footballdata

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/goal-alerts/internal/domain/match"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"github.com/riskibarqy/goal-alerts/internal/platform/metrics"
	"github.com/riskibarqy/goal-alerts/internal/platform/resilience"
	"github.com/riskibarqy/goal-alerts/internal/usecase"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const (
	providerName   = "footballdata"
	defaultBaseURL = "https://api.football-data.org/v4"
	defaultRPM     = 10
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

var errFootballDataTransient = crerr.New("football-data transient failure")

type ClientConfig struct {
	BaseURL string
	Token   string
	// RequestsPerMinute is the upstream quota; the free tier allows 10.
	RequestsPerMinute int
	Timeout           time.Duration
	Logger            *logging.Logger
	Metrics           *metrics.Metrics
	CircuitBreaker    resilience.CircuitBreakerConfig
}

// Client is the score-only provider. It reports cumulative scores, so goals
// are inferred from score deltas.
type Client struct {
	http           *fasthttp.Client
	baseURL        string
	token          string
	timeout        time.Duration
	limiter        *rate.Limiter
	logger         *logging.Logger
	metrics        *metrics.Metrics
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	validate       *validator.Validate
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRPM
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		http: &fasthttp.Client{
			Name:                "goal-alerts",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxBodyBytes,
		},
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		timeout:        timeout,
		limiter:        rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 2),
		logger:         logger.Named(providerName),
		metrics:        cfg.Metrics,
		breaker:        resilience.NewCircuitBreaker(providerName, breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
		validate:       validator.New(),
	}
}

func (c *Client) Name() string {
	return providerName
}

func (c *Client) Strategy() match.Strategy {
	return match.StrategyScoreDelta
}

func (c *Client) FetchLive(ctx context.Context) []match.Match {
	records, ok := c.fetchMatches(ctx, "live", "LIVE")
	if !ok {
		return nil
	}

	out := make([]match.Match, 0, len(records))
	for _, rec := range records {
		kickoff, err := time.Parse(time.RFC3339, rec.UTCDate)
		if err != nil {
			c.skipRecord(ctx, rec.ID, crerr.Wrapf(err, "parse utcDate %q", rec.UTCDate))
			continue
		}
		minute := parseMinute(rec.Minute)
		out = append(out, match.Match{
			ID:       rec.ID,
			HomeTeam: strings.TrimSpace(rec.HomeTeam.Name),
			AwayTeam: strings.TrimSpace(rec.AwayTeam.Name),
			League:   strings.TrimSpace(rec.Competition.Name),
			Country:  strings.TrimSpace(rec.Area.Name),
			Score:    rec.Score.current(),
			Minute:   minute,
			Status:   mapStatus(rec.Status, rec.Score.Duration, minute),
			Kickoff:  kickoff.UTC(),
		})
	}
	return out
}

func (c *Client) FetchScheduled(ctx context.Context) []match.Fixture {
	records, ok := c.fetchMatches(ctx, "scheduled", "SCHEDULED")
	if !ok {
		return nil
	}

	out := make([]match.Fixture, 0, len(records))
	for _, rec := range records {
		kickoff, err := time.Parse(time.RFC3339, rec.UTCDate)
		if err != nil {
			c.skipRecord(ctx, rec.ID, crerr.Wrapf(err, "parse utcDate %q", rec.UTCDate))
			continue
		}
		out = append(out, match.Fixture{
			ID:       rec.ID,
			HomeTeam: strings.TrimSpace(rec.HomeTeam.Name),
			AwayTeam: strings.TrimSpace(rec.AwayTeam.Name),
			League:   strings.TrimSpace(rec.Competition.Name),
			Kickoff:  kickoff.UTC(),
		})
	}
	return out
}

// fetchMatches returns the validated records for one status filter. ok is
// false when the whole request failed.
func (c *Client) fetchMatches(ctx context.Context, kind, status string) ([]matchRecord, bool) {
	var envelope matchesEnvelope
	if err := c.getJSON(ctx, "/matches?status="+status, &envelope); err != nil {
		c.metrics.ProviderFetch(providerName, kind, false)
		c.logger.WarnContext(ctx, "fetch matches failed",
			"kind", kind,
			"error", crerr.Mark(err, usecase.ErrTransientFetch),
		)
		return nil, false
	}
	c.metrics.ProviderFetch(providerName, kind, true)

	records := make([]matchRecord, 0, len(envelope.Matches))
	for _, raw := range envelope.Matches {
		var rec matchRecord
		if err := sonic.Unmarshal(raw, &rec); err != nil {
			c.skipRecord(ctx, peekID(raw), crerr.Wrap(err, "decode match"))
			continue
		}
		if err := c.validate.StructCtx(ctx, rec); err != nil {
			c.skipRecord(ctx, rec.ID, err)
			continue
		}
		records = append(records, rec)
	}
	return records, true
}

// peekID recovers the id of a record that failed to decode, for logging.
func peekID(raw []byte) int64 {
	var ref struct {
		ID int64 `json:"id"`
	}
	if err := sonic.Unmarshal(raw, &ref); err != nil {
		return 0
	}
	return ref.ID
}

func (c *Client) skipRecord(ctx context.Context, matchID int64, err error) {
	c.metrics.MalformedRecord(providerName)
	c.logger.WarnContext(ctx, "skip malformed match",
		"match_id", matchID,
		"error", crerr.Mark(err, usecase.ErrMalformedRecord),
	)
}

func (c *Client) getJSON(ctx context.Context, pathAndQuery string, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return crerr.Wrap(err, "wait for request quota")
	}

	var body []byte
	call := func() error {
		var err error
		body, err = c.execute(ctx, c.baseURL+pathAndQuery)
		return err
	}

	var err error
	if c.circuitEnabled {
		err = c.breaker.Execute(call, isCircuitFailure)
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "football-data circuit breaker rejected request", "state", c.breaker.State())
			return crerr.Wrap(usecase.ErrDependencyUnavailable, "score provider is temporarily unavailable")
		}
	} else {
		err = call()
	}
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(body, target); err != nil {
		return crerr.Wrap(err, "decode provider payload")
	}
	return nil
}

func (c *Client) execute(ctx context.Context, fullURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, crerr.Wrapf(errFootballDataTransient, "send request: %v", err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		err := crerr.Newf("provider status=%d body=%s", status, abbreviateBody(resp.Body()))
		if isRetryableStatus(status) {
			return nil, crerr.Mark(err, errFootballDataTransient)
		}
		return nil, err
	}

	// resp is released on return.
	return append([]byte(nil), resp.Body()...), nil
}

// parseMinute accepts an integer or a numeric string; stoppage time such as
// "45+2" yields 45.
func parseMinute(raw any) *int {
	switch v := raw.(type) {
	case float64:
		minute := int(v)
		return &minute
	case int64:
		minute := int(v)
		return &minute
	case string:
		head, _, _ := strings.Cut(strings.TrimSpace(v), "+")
		minute, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil {
			return nil
		}
		return &minute
	default:
		return nil
	}
}

func mapStatus(status, duration string, minute *int) match.Status {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "IN_PLAY", "LIVE":
		switch strings.ToUpper(strings.TrimSpace(duration)) {
		case "EXTRA_TIME":
			return match.StatusExtraTime
		case "PENALTY_SHOOTOUT":
			return match.StatusPenalties
		}
		if minute != nil && *minute > 45 {
			return match.StatusSecondHalf
		}
		return match.StatusFirstHalf
	case "PAUSED":
		return match.StatusHalftime
	case "FINISHED", "AWARDED":
		return match.StatusFinished
	case "SCHEDULED", "TIMED":
		return match.StatusScheduled
	case "SUSPENDED", "POSTPONED", "CANCELLED":
		return match.StatusSuspended
	default:
		return match.StatusUnknown
	}
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errFootballDataTransient)
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusTooManyRequests || code >= fasthttp.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

// matchesEnvelope keeps records raw so one badly typed match is skipped on
// its own.
type matchesEnvelope struct {
	Matches []json.RawMessage `json:"matches"`
}

type matchRecord struct {
	ID          int64    `json:"id" validate:"gt=0"`
	UTCDate     string   `json:"utcDate" validate:"required"`
	Status      string   `json:"status" validate:"required"`
	Minute      any      `json:"minute"`
	HomeTeam    teamRef  `json:"homeTeam"`
	AwayTeam    teamRef  `json:"awayTeam"`
	Score       scoreRef `json:"score"`
	Competition nameRef  `json:"competition"`
	Area        nameRef  `json:"area"`
}

type teamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}

type nameRef struct {
	Name string `json:"name"`
}

type scoreRef struct {
	Duration string    `json:"duration"`
	FullTime scorePair `json:"fullTime"`
}

type scorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

func (s scoreRef) current() *match.Score {
	if s.FullTime.Home == nil || s.FullTime.Away == nil {
		return nil
	}
	return &match.Score{Home: *s.FullTime.Home, Away: *s.FullTime.Away}
}
