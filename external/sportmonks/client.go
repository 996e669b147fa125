package sportmonks

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	providerName       = "sportmonks"
	defaultBaseURL     = "https://api.sportmonks.com/v3/football"
	defaultIncludeLive = "participants;scores;periods;events.type;league.country"
	defaultIncludeDay  = "participants;league"
	maxBodyBytes       = 6 << 20
)

// SportMonks event type ids that count as goals.
const (
	eventTypeGoal        int64 = 14
	eventTypeOwnGoal     int64 = 15
	eventTypePenaltyGoal int64 = 16
)

var apiTokenParamRegex = regexp.MustCompile(`api_token=[^&\s"']+`)
var errSportMonksTransient = crerr.New("sportmonks transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	Metrics        *metrics.Metrics
	CircuitBreaker resilience.CircuitBreakerConfig
	Now            func() time.Time
}

// Client is the event-feed provider: live fixtures carry explicit goal
// events with scorer ids, so goals are deduplicated by event key.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	metrics        *metrics.Metrics
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         singleflight.Group
	validate       *validator.Validate
	now            func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger.Named(providerName),
		metrics:        cfg.Metrics,
		breaker:        resilience.NewCircuitBreaker(providerName, breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
		validate:       validator.New(),
		now:            now,
	}
}

func (c *Client) Name() string {
	return providerName
}

func (c *Client) Strategy() match.Strategy {
	return match.StrategyEventID
}

// FetchLive returns every in-play fixture. Failures are logged and reported
// as an empty list.
func (c *Client) FetchLive(ctx context.Context) []match.Match {
	var envelope fixturesEnvelope
	query := map[string]string{"include": defaultIncludeLive}
	if _, err := c.doJSON(ctx, "/livescores/inplay", query, &envelope); err != nil {
		c.metrics.ProviderFetch(providerName, "live", false)
		c.logger.WarnContext(ctx, "fetch live fixtures failed", "error", crerr.Mark(err, usecase.ErrTransientFetch))
		return nil
	}
	c.metrics.ProviderFetch(providerName, "live", true)

	items := c.decodeFixtures(ctx, envelope.Data)
	out := make([]match.Match, 0, len(items))
	for _, item := range items {
		out = append(out, mapLiveFixture(item))
	}
	return out
}

// FetchScheduled returns fixtures kicking off between today and tomorrow
// (UTC) that have not started yet.
func (c *Client) FetchScheduled(ctx context.Context) []match.Fixture {
	today := c.now().UTC()
	path := "/fixtures/between/" + today.Format(time.DateOnly) + "/" + today.AddDate(0, 0, 1).Format(time.DateOnly)

	var envelope fixturesEnvelope
	query := map[string]string{"include": defaultIncludeDay}
	if _, err := c.doJSON(ctx, path, query, &envelope); err != nil {
		c.metrics.ProviderFetch(providerName, "scheduled", false)
		c.logger.WarnContext(ctx, "fetch scheduled fixtures failed", "error", crerr.Mark(err, usecase.ErrTransientFetch))
		return nil
	}
	c.metrics.ProviderFetch(providerName, "scheduled", true)

	items := c.decodeFixtures(ctx, envelope.Data)
	out := make([]match.Fixture, 0, len(items))
	for _, item := range items {
		if mapFixtureStatus(item.StateID) != match.StatusScheduled {
			continue
		}
		kickoff := parseProviderDateTime(item.StartingAt)
		if kickoff == nil {
			c.skipRecord(ctx, item.ID, crerr.Newf("unparsable starting_at %q", item.StartingAt))
			continue
		}
		home, away := resolveFixtureParticipants(item.Participants)
		out = append(out, match.Fixture{
			ID:       item.ID,
			HomeTeam: home.Name,
			AwayTeam: away.Name,
			League:   strings.TrimSpace(item.League.Data.Name),
			Kickoff:  *kickoff,
		})
	}
	return out
}

// decodeFixtures decodes and validates each fixture on its own; a bad one is
// logged and skipped.
func (c *Client) decodeFixtures(ctx context.Context, raws []json.RawMessage) []fixtureItem {
	items := make([]fixtureItem, 0, len(raws))
	for _, raw := range raws {
		var item fixtureItem
		if err := sonic.Unmarshal(raw, &item); err != nil {
			c.skipRecord(ctx, peekID(raw), crerr.Wrap(err, "decode fixture"))
			continue
		}
		if err := c.validate.StructCtx(ctx, item); err != nil {
			c.skipRecord(ctx, item.ID, err)
			continue
		}
		items = append(items, item)
	}
	return items
}

func peekID(raw []byte) int64 {
	var ref struct {
		ID int64 `json:"id"`
	}
	if err := sonic.Unmarshal(raw, &ref); err != nil {
		return 0
	}
	return ref.ID
}

func (c *Client) skipRecord(ctx context.Context, fixtureID int64, err error) {
	c.metrics.MalformedRecord(providerName)
	c.logger.WarnContext(ctx, "skip malformed fixture",
		"fixture_id", fixtureID,
		"error", crerr.Mark(err, usecase.ErrMalformedRecord),
	)
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) ([]byte, error) {
	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	values.Set("api_token", c.token)

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		if !c.circuitEnabled {
			return c.executeRequest(ctx, fullURL)
		}
		var raw []byte
		execErr := c.breaker.Execute(func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(ctx, fullURL)
			return reqErr
		}, isSportMonksCircuitFailure)
		if crerr.Is(execErr, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "sportmonks circuit breaker rejected request", "state", c.breaker.State())
			return nil, crerr.Wrap(usecase.ErrDependencyUnavailable, "sport data provider is temporarily unavailable")
		}
		return raw, execErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, crerr.Newf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, crerr.Wrap(err, "decode provider payload")
	}

	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, crerr.Wrap(err, "build request")
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = crerr.Wrapf(errSportMonksTransient, "send request: %s", sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Wrapf(errSportMonksTransient, "read response body: %v", readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Wrapf(errSportMonksTransient, "provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, crerr.Newf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(sanitizeBody(raw, c.token)))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = crerr.New("provider request failed")
	}
	c.logger.WarnContext(ctx, "sportmonks request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func mapLiveFixture(item fixtureItem) match.Match {
	home, away := resolveFixtureParticipants(item.Participants)
	m := match.Match{
		ID:       item.ID,
		HomeTeam: home.Name,
		AwayTeam: away.Name,
		Status:   mapFixtureStatus(item.StateID),
		Minute:   resolveMinute(item.Periods),
	}
	if item.League.Set {
		m.League = strings.TrimSpace(item.League.Data.Name)
		if item.League.Data.Country.Set {
			m.Country = strings.TrimSpace(item.League.Data.Country.Data.Name)
		}
	}
	if kickoff := parseProviderDateTime(item.StartingAt); kickoff != nil {
		m.Kickoff = *kickoff
	}
	m.Score = resolveCurrentScore(item.Scores, home.ID, away.ID)

	for _, ev := range item.Events {
		m.Events = append(m.Events, match.Event{
			ID:       ev.ID,
			Type:     ev.eventType(),
			Minute:   ev.Minute,
			ScorerID: ev.PlayerID,
		})
	}
	return m
}

type participantRef struct {
	ID   int64
	Name string
}

func resolveFixtureParticipants(participants []fixtureParticipant) (participantRef, participantRef) {
	var home, away participantRef
	for _, item := range participants {
		ref := participantRef{ID: item.ID, Name: strings.TrimSpace(item.Name)}
		switch strings.ToLower(strings.TrimSpace(item.Meta.Location)) {
		case "home":
			home = ref
		case "away":
			away = ref
		}
	}
	return home, away
}

// resolveCurrentScore reads the "CURRENT" score rows. Nil when either side is
// missing.
func resolveCurrentScore(scores []fixtureScoreItem, homeID, awayID int64) *match.Score {
	var home, away *int
	for _, item := range scores {
		if !strings.EqualFold(strings.TrimSpace(item.Description), "CURRENT") {
			continue
		}
		goals := item.Score.Goals
		switch item.ParticipantID {
		case homeID:
			home = &goals
		case awayID:
			away = &goals
		}
	}
	if home == nil || away == nil {
		return nil
	}
	return &match.Score{Home: *home, Away: *away}
}

// resolveMinute takes the minutes of the ticking period.
func resolveMinute(periods []fixturePeriod) *int {
	for _, p := range periods {
		if p.Ticking && p.Minutes != nil {
			minute := *p.Minutes
			return &minute
		}
	}
	return nil
}

func mapFixtureStatus(stateID int64) match.Status {
	switch stateID {
	case 1:
		return match.StatusScheduled
	case 2:
		return match.StatusFirstHalf
	case 3:
		return match.StatusHalftime
	case 22:
		return match.StatusSecondHalf
	case 4, 21, 25:
		return match.StatusPaused
	case 6:
		return match.StatusExtraTime
	case 9:
		return match.StatusPenalties
	case 5, 7, 8:
		return match.StatusFinished
	case 10, 11, 12, 15, 16, 18:
		return match.StatusSuspended
	default:
		return match.StatusUnknown
	}
}

func parseProviderDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	layouts := []string{
		time.DateTime,
		"2006-01-02T15:04:05Z07:00",
		time.RFC3339,
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return apiTokenParamRegex.ReplaceAllString(value, "api_token=REDACTED")
}

func sanitizeBody(body []byte, token string) []byte {
	return []byte(sanitizeSensitiveText(string(body), token))
}

func isSportMonksCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return crerr.Is(err, errSportMonksTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Has("api_token") {
		query.Set("api_token", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

type fixturesEnvelope struct {
	Data []json.RawMessage `json:"data"`
}

type fixtureItem struct {
	ID           int64                `json:"id" validate:"gt=0"`
	StartingAt   string               `json:"starting_at"`
	StateID      int64                `json:"state_id"`
	Participants []fixtureParticipant `json:"participants" validate:"len=2,dive"`
	Scores       []fixtureScoreItem   `json:"scores"`
	Periods      []fixturePeriod      `json:"periods"`
	Events       []fixtureEventItem   `json:"events"`
	League       relation[leagueRef]  `json:"league"`
}

type fixtureParticipant struct {
	ID   int64                  `json:"id" validate:"gt=0"`
	Name string                 `json:"name" validate:"required"`
	Meta fixtureParticipantMeta `json:"meta"`
}

type fixtureParticipantMeta struct {
	Location string `json:"location" validate:"oneof=home away"`
}

type fixtureScoreItem struct {
	ParticipantID int64       `json:"participant_id"`
	Description   string      `json:"description"`
	Score         scoreDetail `json:"score"`
}

type scoreDetail struct {
	Goals       int    `json:"goals"`
	Participant string `json:"participant"`
}

type fixturePeriod struct {
	Minutes *int `json:"minutes"`
	Ticking bool `json:"ticking"`
}

type fixtureEventItem struct {
	ID          int64                 `json:"id"`
	TypeID      int64                 `json:"type_id"`
	PlayerID    *int64                `json:"player_id"`
	Minute      *int                  `json:"minute"`
	ExtraMinute *int                  `json:"extra_minute"`
	Type        relation[statTypeRef] `json:"type"`
}

func (f fixtureEventItem) eventType() match.EventType {
	typeID := f.TypeID
	if f.Type.Set {
		switch strings.ToUpper(strings.TrimSpace(f.Type.Data.DeveloperName)) {
		case "GOAL":
			return match.EventGoal
		case "OWNGOAL":
			return match.EventOwnGoal
		case "PENALTY":
			return match.EventPenaltyGoal
		}
		if typeID == 0 {
			typeID = f.Type.Data.ID
		}
	}
	switch typeID {
	case eventTypeGoal:
		return match.EventGoal
	case eventTypeOwnGoal:
		return match.EventOwnGoal
	case eventTypePenaltyGoal:
		return match.EventPenaltyGoal
	default:
		return match.EventOther
	}
}

type statTypeRef struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	DeveloperName string `json:"developer_name"`
}

type leagueRef struct {
	ID      int64                `json:"id"`
	Name    string               `json:"name"`
	Country relation[countryRef] `json:"country"`
}

type countryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// relation decodes an include that may arrive bare or wrapped in "data".
type relation[T any] struct {
	Data T
	Set  bool
}

func (r *relation[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		r.Set = false
		return nil
	}

	var wrapped struct {
		Data *T `json:"data"`
	}
	if err := sonic.Unmarshal(trimmed, &wrapped); err == nil && wrapped.Data != nil {
		r.Data = *wrapped.Data
		r.Set = true
		return nil
	}

	var direct T
	if err := sonic.Unmarshal(trimmed, &direct); err != nil {
		return err
	}
	r.Data = direct
	r.Set = true
	return nil
}
