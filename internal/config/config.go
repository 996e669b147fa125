package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	ProviderFootballData = "footballdata"
	ProviderSportMonks   = "sportmonks"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level
	MetricsEnabled bool
	AdminAPIToken  string

	Provider  ProviderConfig
	Poll      PollConfig
	Alerts    AlertsConfig
	Discord   DiscordConfig
	Telemetry TelemetryConfig
}

type ProviderConfig struct {
	Name                  string
	FootballDataBaseURL   string
	FootballDataToken     string
	FootballDataRPM       int
	SportMonksBaseURL     string
	SportMonksToken       string
	SportMonksMaxRetries  int
	CircuitEnabled        bool
	CircuitFailureCount   int
	CircuitOpenTimeout    time.Duration
	CircuitHalfOpenMaxReq int
}

type PollConfig struct {
	Tick              time.Duration
	LiveThreshold     time.Duration
	ScheduleThreshold time.Duration
}

// MinuteRange is an inclusive match-minute interval.
type MinuteRange struct {
	From int
	To   int
}

type AlertsConfig struct {
	LiveFetchTimeout     time.Duration
	ScheduleFetchTimeout time.Duration
	SendTimeout          time.Duration
	ReminderWindowMin    time.Duration
	ReminderWindowMax    time.Duration
	HighlightWindows     []MinuteRange
	FanoutWorkers        int
	LiveQueryCacheTTL    time.Duration
	DisplayZone          *time.Location
	UpcomingLimit        int
	AdminRecipientID     string
}

type DiscordConfig struct {
	Enabled  bool
	BotToken string
	GuildID  string
}

type TelemetryConfig struct {
	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	BetterStackEnabled         bool
	BetterStackEndpoint        string
	BetterStackToken           string
	BetterStackTimeout         time.Duration
	BetterStackMinLevel        logging.Level
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	PprofEnabled               bool
	PprofAddr                  string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "goal-alerts"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:       strings.TrimSpace(getEnv("APP_HTTP_ADDR", ":8080")),
		LogLevel:       parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		AdminAPIToken:  strings.TrimSpace(getEnv("ADMIN_API_TOKEN", "")),
	}
	if cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}
	if cfg.MetricsEnabled, err = getEnvAsBool("METRICS_ENABLED", "true"); err != nil {
		return Config{}, err
	}

	if cfg.Provider, err = loadProvider(); err != nil {
		return Config{}, err
	}
	if cfg.Poll, err = loadPoll(); err != nil {
		return Config{}, err
	}
	if cfg.Alerts, err = loadAlerts(); err != nil {
		return Config{}, err
	}
	if cfg.Discord, err = loadDiscord(); err != nil {
		return Config{}, err
	}
	if cfg.Telemetry, err = loadTelemetry(cfg.ServiceName); err != nil {
		return Config{}, err
	}

	if width := cfg.Alerts.ReminderWindowMax - cfg.Alerts.ReminderWindowMin; width <= cfg.Poll.Tick {
		return Config{}, crerr.Newf("reminder window width %s must be wider than POLL_TICK %s", width, cfg.Poll.Tick)
	}

	return cfg, nil
}

func loadProvider() (ProviderConfig, error) {
	out := ProviderConfig{
		Name:                strings.ToLower(strings.TrimSpace(getEnv("PROVIDER", ProviderFootballData))),
		FootballDataBaseURL: strings.TrimSpace(getEnv("FOOTBALL_DATA_BASE_URL", "https://api.football-data.org/v4")),
		FootballDataToken:   strings.TrimSpace(getEnv("FOOTBALL_DATA_TOKEN", "")),
		SportMonksBaseURL:   strings.TrimSpace(getEnv("SPORTMONKS_BASE_URL", "https://api.sportmonks.com/v3/football")),
		SportMonksToken:     strings.TrimSpace(getEnv("SPORTMONKS_TOKEN", "")),
	}

	var err error
	if out.FootballDataRPM, err = getEnvAsInt("FOOTBALL_DATA_RPM", 10); err != nil {
		return ProviderConfig{}, crerr.Wrap(err, "parse FOOTBALL_DATA_RPM")
	}
	if out.FootballDataRPM < 1 {
		return ProviderConfig{}, crerr.New("FOOTBALL_DATA_RPM must be >= 1")
	}
	if out.SportMonksMaxRetries, err = getEnvAsInt("SPORTMONKS_MAX_RETRIES", 0); err != nil {
		return ProviderConfig{}, crerr.Wrap(err, "parse SPORTMONKS_MAX_RETRIES")
	}
	if out.SportMonksMaxRetries < 0 {
		return ProviderConfig{}, crerr.New("SPORTMONKS_MAX_RETRIES must be >= 0")
	}

	if out.CircuitEnabled, err = getEnvAsBool("PROVIDER_CIRCUIT_ENABLED", "true"); err != nil {
		return ProviderConfig{}, err
	}
	if out.CircuitFailureCount, err = getEnvAsInt("PROVIDER_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return ProviderConfig{}, crerr.Wrap(err, "parse PROVIDER_CIRCUIT_FAILURE_COUNT")
	}
	if out.CircuitFailureCount < 1 {
		return ProviderConfig{}, crerr.New("PROVIDER_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if out.CircuitOpenTimeout, err = getEnvAsDuration("PROVIDER_CIRCUIT_OPEN_TIMEOUT", "30s"); err != nil {
		return ProviderConfig{}, err
	}
	if out.CircuitHalfOpenMaxReq, err = getEnvAsInt("PROVIDER_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return ProviderConfig{}, crerr.Wrap(err, "parse PROVIDER_CIRCUIT_HALF_OPEN_MAX_REQ")
	}
	if out.CircuitHalfOpenMaxReq < 1 {
		return ProviderConfig{}, crerr.New("PROVIDER_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	switch out.Name {
	case ProviderFootballData:
		if out.FootballDataToken == "" {
			return ProviderConfig{}, crerr.New("FOOTBALL_DATA_TOKEN is required when PROVIDER=footballdata")
		}
	case ProviderSportMonks:
		if out.SportMonksToken == "" {
			return ProviderConfig{}, crerr.New("SPORTMONKS_TOKEN is required when PROVIDER=sportmonks")
		}
	default:
		return ProviderConfig{}, crerr.Newf("invalid PROVIDER %q: valid values are %s, %s", out.Name, ProviderFootballData, ProviderSportMonks)
	}
	return out, nil
}

func loadPoll() (PollConfig, error) {
	var (
		out PollConfig
		err error
	)
	if out.Tick, err = getEnvAsDuration("POLL_TICK", "5s"); err != nil {
		return PollConfig{}, err
	}
	if out.LiveThreshold, err = getEnvAsDuration("POLL_LIVE_THRESHOLD", "30s"); err != nil {
		return PollConfig{}, err
	}
	if out.ScheduleThreshold, err = getEnvAsDuration("POLL_SCHEDULE_THRESHOLD", "10m"); err != nil {
		return PollConfig{}, err
	}
	if out.Tick >= out.LiveThreshold {
		return PollConfig{}, crerr.Newf("POLL_TICK %s must be shorter than POLL_LIVE_THRESHOLD %s", out.Tick, out.LiveThreshold)
	}
	return out, nil
}

func loadAlerts() (AlertsConfig, error) {
	var (
		out AlertsConfig
		err error
	)
	if out.LiveFetchTimeout, err = getEnvAsDuration("LIVE_FETCH_TIMEOUT", "5s"); err != nil {
		return AlertsConfig{}, err
	}
	if out.ScheduleFetchTimeout, err = getEnvAsDuration("SCHEDULE_FETCH_TIMEOUT", "10s"); err != nil {
		return AlertsConfig{}, err
	}
	if out.SendTimeout, err = getEnvAsDuration("SEND_TIMEOUT", "5s"); err != nil {
		return AlertsConfig{}, err
	}
	if out.ReminderWindowMin, err = getEnvAsDuration("REMINDER_WINDOW_MIN", "9m"); err != nil {
		return AlertsConfig{}, err
	}
	if out.ReminderWindowMax, err = getEnvAsDuration("REMINDER_WINDOW_MAX", "11m"); err != nil {
		return AlertsConfig{}, err
	}
	if out.ReminderWindowMax < out.ReminderWindowMin {
		return AlertsConfig{}, crerr.New("REMINDER_WINDOW_MAX must be >= REMINDER_WINDOW_MIN")
	}
	if out.HighlightWindows, err = parseMinuteRanges(getEnv("HIGHLIGHT_WINDOWS", "2-11,69-72")); err != nil {
		return AlertsConfig{}, crerr.Wrap(err, "parse HIGHLIGHT_WINDOWS")
	}
	if out.FanoutWorkers, err = getEnvAsInt("FANOUT_WORKERS", 1); err != nil {
		return AlertsConfig{}, crerr.Wrap(err, "parse FANOUT_WORKERS")
	}
	if out.FanoutWorkers < 1 {
		return AlertsConfig{}, crerr.New("FANOUT_WORKERS must be >= 1")
	}
	if out.LiveQueryCacheTTL, err = getEnvAsDuration("LIVE_QUERY_CACHE_TTL", "15s"); err != nil {
		return AlertsConfig{}, err
	}
	if out.UpcomingLimit, err = getEnvAsInt("UPCOMING_LIMIT", 5); err != nil {
		return AlertsConfig{}, crerr.Wrap(err, "parse UPCOMING_LIMIT")
	}
	if out.UpcomingLimit < 1 {
		return AlertsConfig{}, crerr.New("UPCOMING_LIMIT must be >= 1")
	}

	offset, err := time.ParseDuration(getEnv("DISPLAY_UTC_OFFSET", "3h"))
	if err != nil {
		return AlertsConfig{}, crerr.Wrap(err, "parse DISPLAY_UTC_OFFSET")
	}
	if offset < -14*time.Hour || offset > 14*time.Hour {
		return AlertsConfig{}, crerr.New("DISPLAY_UTC_OFFSET must be within ±14h")
	}
	out.DisplayZone = time.FixedZone(strings.TrimSpace(getEnv("DISPLAY_ZONE_NAME", "MSK")), int(offset/time.Second))
	out.AdminRecipientID = strings.TrimSpace(getEnv("ADMIN_RECIPIENT_ID", ""))
	return out, nil
}

func loadDiscord() (DiscordConfig, error) {
	enabled, err := getEnvAsBool("DISCORD_ENABLED", "false")
	if err != nil {
		return DiscordConfig{}, err
	}
	out := DiscordConfig{
		Enabled:  enabled,
		BotToken: strings.TrimSpace(getEnv("DISCORD_BOT_TOKEN", "")),
		GuildID:  strings.TrimSpace(getEnv("DISCORD_GUILD_ID", "")),
	}
	if out.Enabled && out.BotToken == "" {
		return DiscordConfig{}, crerr.New("DISCORD_BOT_TOKEN is required when DISCORD_ENABLED=true")
	}
	return out, nil
}

func loadTelemetry(serviceName string) (TelemetryConfig, error) {
	var (
		out TelemetryConfig
		err error
	)

	if out.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", "false"); err != nil {
		return TelemetryConfig{}, err
	}
	out.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if out.UptraceDSN == "" {
		out.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if out.UptraceEnabled && out.UptraceDSN == "" {
		return TelemetryConfig{}, crerr.New("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if out.UptraceLogsEnabled, err = getEnvAsBool("UPTRACE_LOGS_ENABLED", "true"); err != nil {
		return TelemetryConfig{}, err
	}

	if out.BetterStackEnabled, err = getEnvAsBool("BETTERSTACK_ENABLED", "false"); err != nil {
		return TelemetryConfig{}, err
	}
	out.BetterStackEndpoint = strings.TrimSpace(getEnv("BETTERSTACK_ENDPOINT", ""))
	if out.BetterStackEnabled && out.BetterStackEndpoint == "" {
		return TelemetryConfig{}, crerr.New("BETTERSTACK_ENDPOINT is required when BETTERSTACK_ENABLED=true")
	}
	out.BetterStackToken = strings.TrimSpace(getEnv("BETTERSTACK_TOKEN", ""))
	if out.BetterStackTimeout, err = getEnvAsDuration("BETTERSTACK_TIMEOUT", "3s"); err != nil {
		return TelemetryConfig{}, err
	}
	out.BetterStackMinLevel = parseLogLevel(getEnv("BETTERSTACK_MIN_LEVEL", "error"))

	if out.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", "false"); err != nil {
		return TelemetryConfig{}, err
	}
	out.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if out.PyroscopeEnabled && out.PyroscopeServerAddress == "" {
		return TelemetryConfig{}, crerr.New("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	out.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", serviceName))
	out.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	out.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	out.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	if out.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return TelemetryConfig{}, err
	}

	if out.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", "false"); err != nil {
		return TelemetryConfig{}, err
	}
	out.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if out.PprofEnabled && out.PprofAddr == "" {
		return TelemetryConfig{}, crerr.New("PPROF_ADDR is required when PPROF_ENABLED=true")
	}
	return out, nil
}

// parseMinuteRanges reads "2-11,69-72". An empty value disables the
// highlighted tier.
func parseMinuteRanges(raw string) ([]MinuteRange, error) {
	items := splitCSV(raw)
	out := make([]MinuteRange, 0, len(items))
	for _, item := range items {
		from, to, ok := strings.Cut(item, "-")
		if !ok {
			return nil, crerr.Newf("invalid range %q, expected from-to", item)
		}
		lo, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, crerr.Wrapf(err, "invalid range start in %q", item)
		}
		hi, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return nil, crerr.Wrapf(err, "invalid range end in %q", item)
		}
		if lo < 0 || hi < lo {
			return nil, crerr.Newf("invalid range %q, need 0 <= from <= to", item)
		}
		out = append(out, MinuteRange{From: lo, To: hi})
	}
	return out, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key, fallback string) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, fallback))
	if err != nil {
		return false, crerr.Wrapf(err, "parse %s", key)
	}
	return out, nil
}

// getEnvAsDuration parses a strictly positive duration.
func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, crerr.Wrapf(err, "parse %s", key)
	}
	if out <= 0 {
		return 0, crerr.Newf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", crerr.Newf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
