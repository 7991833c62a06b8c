package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/localstate"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// EnvPrefix is prepended to every variable name, e.g. ORDER_SERVICE_HTTP_PORT.
const EnvPrefix = "ORDER_SERVICE"

// Config holds the configuration shared by the order service binaries.
type Config struct {
	// Build target selects high-level environment: local, cloud-dev, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override drivers
	DBDriver       string `envconfig:"DB_DRIVER" default:"auto"`
	IdentityDriver string `envconfig:"IDENTITY_DRIVER" default:"auto"`
	MailDriver     string `envconfig:"MAIL_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`

	// Auth
	JWTSecret string `envconfig:"JWT_SECRET" default:""`
	DevAuth   bool   `envconfig:"DEV_AUTH" default:"false"`

	// Identity provider (Cognito-compatible JSON API)
	IdentityEndpoint     string `envconfig:"IDENTITY_ENDPOINT" default:""`
	IdentityClientID     string `envconfig:"IDENTITY_CLIENT_ID" default:""`
	IdentityClientSecret string `envconfig:"IDENTITY_CLIENT_SECRET" default:""`

	// Outbound mail
	SMTPHost     string `envconfig:"SMTP_HOST" default:""`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	MailFrom     string `envconfig:"MAIL_FROM" default:"no-reply@dwq.legal"`

	// Order intake
	DeadlineTimeZone     string `envconfig:"DEADLINE_TIME_ZONE" default:"America/New_York"`
	DefaultPartyPassword string `envconfig:"DEFAULT_PARTY_PASSWORD" default:"Welcome@DWQ1"`
	CallTimeoutSeconds   int    `envconfig:"CALL_TIMEOUT_SECONDS" default:"10"`
	FanOutLimit          int    `envconfig:"FAN_OUT_LIMIT" default:"8"`

	// Health probing
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5"`

	// Identity reconciliation worker
	ReconcileIntervalSeconds int `envconfig:"RECONCILE_INTERVAL_SECONDS" default:"15"`
	ReconcileBatchSize       int `envconfig:"RECONCILE_BATCH_SIZE" default:"50"`
}

// ResolveDefaults validates BuildTarget and derives the drivers left on "auto".
func (c *Config) ResolveDefaults() error {
	var defaultDB, defaultIdentity, defaultMail string

	switch c.BuildTarget {
	case "local":
		defaultDB, defaultIdentity, defaultMail = "sqlite", "noop", "log"
	case "cloud-dev", "cloud":
		defaultDB, defaultIdentity, defaultMail = "postgres", "cognito", "smtp"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}
	if c.IdentityDriver == "" || c.IdentityDriver == "auto" {
		c.IdentityDriver = defaultIdentity
	}
	if c.MailDriver == "" || c.MailDriver == "auto" {
		c.MailDriver = defaultMail
	}

	switch c.DBDriver {
	case "postgres", "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			dir, err := localstate.DataDir()
			if err != nil {
				return fmt.Errorf("derive sqlite path: %w", err)
			}
			c.SQLitePath = filepath.Join(dir, localstate.DBFilename)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.IdentityDriver != "cognito" && c.IdentityDriver != "noop" {
		return fmt.Errorf("unsupported IDENTITY_DRIVER: %s", c.IdentityDriver)
	}
	if c.MailDriver != "smtp" && c.MailDriver != "log" {
		return fmt.Errorf("unsupported MAIL_DRIVER: %s", c.MailDriver)
	}
	if c.FanOutLimit <= 0 {
		c.FanOutLimit = 1
	}
	if _, err := time.LoadLocation(c.DeadlineTimeZone); err != nil {
		return fmt.Errorf("invalid DEADLINE_TIME_ZONE %q: %w", c.DeadlineTimeZone, err)
	}
	return nil
}

// New creates a new Config by parsing ORDER_SERVICE_* environment variables.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("identity_driver", cfg.IdentityDriver).
		Str("mail_driver", cfg.MailDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Bool("dev_auth", cfg.DevAuth).
		Str("deadline_tz", cfg.DeadlineTimeZone).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		BuildTarget:               "local",
		DBDriver:                  "memory",
		IdentityDriver:            "noop",
		MailDriver:                "log",
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		HTTPPort:                  8080,
		JWTSecret:                 "test-secret",
		DevAuth:                   true,
		MailFrom:                  "no-reply@example.test",
		DeadlineTimeZone:          "America/New_York",
		DefaultPartyPassword:      "Welcome@DWQ1",
		CallTimeoutSeconds:        2,
		FanOutLimit:               4,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
		BootstrapTimeoutSeconds:   1,
		ReconcileIntervalSeconds:  1,
		ReconcileBatchSize:        10,
	}
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// Location loads the deadline time zone. ResolveDefaults has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DeadlineTimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
