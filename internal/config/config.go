// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// JWTPublicKey is the PEM-encoded public key (RSA or ECDSA) or path to file, used to
	// verify access tokens minted by the external auth layer. Required by cmd/server.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the expected iss claim (e.g. "sessionguard-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim (e.g. "sessionguard-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`

	// GeoIPBaseURL is the base URL of the IP geolocation provider (e.g. http://ip-api.local).
	// Empty disables remote lookup; every address resolves to the unknown location.
	GeoIPBaseURL string `mapstructure:"GEOIP_BASE_URL"`
	// GeoIPTimeout is the per-lookup timeout (e.g. "2s").
	GeoIPTimeout string `mapstructure:"GEOIP_TIMEOUT"`
	// GeoIPRatePerSecond caps outbound lookups per second (token bucket).
	GeoIPRatePerSecond int `mapstructure:"GEOIP_RATE_PER_SECOND"`

	// AlertWebhookURL is the alert delivery endpoint (e.g. a notification service webhook).
	// Empty disables delivery; alerts are logged only.
	AlertWebhookURL string `mapstructure:"ALERT_WEBHOOK_URL"`
	// AlertCooldown is the rolling window for per-user alert rate limiting (e.g. "60m").
	AlertCooldown string `mapstructure:"ALERT_COOLDOWN"`
	// AlertMaxPerCooldown is the max alerts per user within AlertCooldown.
	AlertMaxPerCooldown int `mapstructure:"ALERT_MAX_PER_COOLDOWN"`

	// RiskTerminateThreshold is the score at and above which sessions are terminated (default 9.0).
	RiskTerminateThreshold float64 `mapstructure:"RISK_TERMINATE_THRESHOLD"`
	// RiskAlertThreshold is the score at and above which alerts are attempted (default 8.0).
	RiskAlertThreshold float64 `mapstructure:"RISK_ALERT_THRESHOLD"`

	// SessionTTL is the initial session lifetime (e.g. "24h").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// RememberMeExtensionHours is the fixed extension applied to remember-me sessions (default 720).
	RememberMeExtensionHours int `mapstructure:"REMEMBER_ME_EXTENSION_HOURS"`
	// MaxActiveSessions is the per-user active session count above which creation is flagged (default 5).
	MaxActiveSessions int `mapstructure:"MAX_ACTIVE_SESSIONS"`
	// SweepInterval is how often the expiry sweep runs in cmd/server (e.g. "5m").
	SweepInterval string `mapstructure:"SWEEP_INTERVAL"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses. Empty disables the event stream.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// KafkaTopic is the Kafka topic for security events (default sessionguard-events).
	KafkaTopic string `mapstructure:"KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the stream worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// LokiURL is the Loki base URL for the stream worker (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`

	// OTLPEndpoint is the OTLP gRPC endpoint for metrics and logs. Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_ISSUER", "sessionguard-auth")
	v.SetDefault("JWT_AUDIENCE", "sessionguard-api")
	v.SetDefault("GEOIP_BASE_URL", "")
	v.SetDefault("GEOIP_TIMEOUT", "2s")
	v.SetDefault("GEOIP_RATE_PER_SECOND", 10)
	v.SetDefault("ALERT_WEBHOOK_URL", "")
	v.SetDefault("ALERT_COOLDOWN", "60m")
	v.SetDefault("ALERT_MAX_PER_COOLDOWN", 3)
	v.SetDefault("RISK_TERMINATE_THRESHOLD", 9.0)
	v.SetDefault("RISK_ALERT_THRESHOLD", 8.0)
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("REMEMBER_ME_EXTENSION_HOURS", 720)
	v.SetDefault("MAX_ACTIVE_SESSIONS", 5)
	v.SetDefault("SWEEP_INTERVAL", "5m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "sessionguard-events")
	v.SetDefault("KAFKA_GROUP_ID", "sessionguard-stream-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.RiskAlertThreshold > cfg.RiskTerminateThreshold {
		return nil, errors.New("config: RISK_ALERT_THRESHOLD must not exceed RISK_TERMINATE_THRESHOLD")
	}
	if cfg.AlertMaxPerCooldown < 0 {
		return nil, errors.New("config: ALERT_MAX_PER_COOLDOWN must not be negative")
	}
	if cfg.MaxActiveSessions <= 0 {
		cfg.MaxActiveSessions = 5
	}
	if cfg.RememberMeExtensionHours <= 0 {
		cfg.RememberMeExtensionHours = 720
	}

	return &cfg, nil
}

// SessionLifetime parses SessionTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) SessionLifetime() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// AlertWindow parses AlertCooldown as a time.Duration. Returns 60m if unset or invalid.
func (c *Config) AlertWindow() time.Duration {
	d, err := time.ParseDuration(c.AlertCooldown)
	if err != nil || d <= 0 {
		return 60 * time.Minute
	}
	return d
}

// GeoLookupTimeout parses GeoIPTimeout as a time.Duration. Returns 2s if unset or invalid.
func (c *Config) GeoLookupTimeout() time.Duration {
	d, err := time.ParseDuration(c.GeoIPTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// SweepEvery parses SweepInterval as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) SweepEvery() time.Duration {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the event stream is enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
