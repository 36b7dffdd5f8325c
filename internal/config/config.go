package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultBackendURL         = "https://easyathlete-backend-production.up.railway.app"
	DefaultAnalyticsFreshness = 30 * time.Minute
)

type SessionStoreKind string

const (
	SessionStoreMemory   SessionStoreKind = "memory"
	SessionStoreRedis    SessionStoreKind = "redis"
	SessionStorePostgres SessionStoreKind = "postgres"
	SessionStoreSQLite   SessionStoreKind = "sqlite"
)

type Config struct {
	Host        string
	Port        int
	Environment string
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// external backend
	BackendURL        string `toml:"backend_url"`
	BackendTimeoutSec int    `toml:"backend_timeout_sec"`

	// session store
	SessionStore     SessionStoreKind `toml:"session_store"`
	SessionTTLHours  int              `toml:"session_ttl_hours"`
	SessionSweepCron string           `toml:"session_sweep_cron"`
	RedisHost        string           `toml:"redis_host"`
	RedisPort        string           `toml:"redis_port"`
	PostgresHost     string           `toml:"postgres_host"`
	PostgresPort     string           `toml:"postgres_port"`
	PostgresDBName   string           `toml:"postgres_db_name"`
	SQLitePath       string           `toml:"sqlite_path"`

	// flow
	AnalyticsFreshnessMin int  `toml:"analytics_freshness_min"`
	KPIsCacheTTLSec       int  `toml:"kpis_cache_ttl_sec"`
	OAuthRedirectDelaySec int  `toml:"oauth_redirect_delay_sec"`
	SkipSignup            bool `toml:"skip_signup"`

	// strava
	StravaClientID    string   `toml:"strava_client_id"`
	StravaRedirectURI string   `toml:"strava_redirect_uri"`
	StravaScopes      []string `toml:"strava_scopes"`

	// http
	AllowedOrigins              []string `toml:"allowed_origins"`
	LoginRateLimitAllowedPerMin int      `toml:"login_rate_limit_allowed_per_min"`
	PrometheusMetricsHost       string   `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort       string   `toml:"prometheus_metrics_port"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the validated section for env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing in %s", env, path)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.BackendURL == "" {
		c.BackendURL = DefaultBackendURL
	}
	c.BackendURL = strings.TrimRight(c.BackendURL, "/")
	if c.BackendTimeoutSec <= 0 {
		c.BackendTimeoutSec = 30
	}
	if c.SessionStore == "" {
		c.SessionStore = SessionStoreMemory
	}
	if c.SessionTTLHours <= 0 {
		c.SessionTTLHours = 24 * 30
	}
	if c.AnalyticsFreshnessMin <= 0 {
		c.AnalyticsFreshnessMin = int(DefaultAnalyticsFreshness / time.Minute)
	}
	if c.KPIsCacheTTLSec <= 0 {
		c.KPIsCacheTTLSec = 300
	}
	if c.OAuthRedirectDelaySec <= 0 {
		c.OAuthRedirectDelaySec = 3
	}
	if len(c.StravaScopes) == 0 {
		c.StravaScopes = []string{"read,activity:read_all"}
	}
	if c.LoginRateLimitAllowedPerMin <= 0 {
		c.LoginRateLimitAllowedPerMin = 15
	}
}

func (c *Config) Validate() error {
	if c.Port <= 0 {
		return errors.New("port not set")
	}
	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.RedisHost == "" || c.RedisPort == "" {
			return errors.New("redis session store requires redis_host and redis_port")
		}
	case SessionStorePostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			return errors.New("postgres session store requires postgres_host, postgres_port and postgres_db_name")
		}
	case SessionStoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite session store requires sqlite_path")
		}
	default:
		return fmt.Errorf("unknown session store: %s", c.SessionStore)
	}
	return nil
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSec) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) AnalyticsFreshness() time.Duration {
	return time.Duration(c.AnalyticsFreshnessMin) * time.Minute
}

func (c *Config) KPIsCacheTTL() time.Duration {
	return time.Duration(c.KPIsCacheTTLSec) * time.Second
}

func (c *Config) OAuthRedirectDelay() time.Duration {
	return time.Duration(c.OAuthRedirectDelaySec) * time.Second
}
