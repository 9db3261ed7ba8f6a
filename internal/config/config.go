package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Global singleton so infrastructure packages can read config without wiring.
var globalConfig *Config

// Config holds all environment backed configuration for tangent-server.
type Config struct {
	// HTTP Server
	HTTPPort    int `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int `env:"METRICS_PORT" envDefault:"9091"`

	// PostgreSQL
	DatabaseURL     string `env:"DATABASE_URL,notEmpty"`
	DatabaseReadURL string `env:"DATABASE_READ_URL"`

	// Auth
	JWTSecret       string        `env:"JWT_SECRET,notEmpty"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	TokenIssuer     string        `env:"TOKEN_ISSUER" envDefault:"tangent-server"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"10"`
	MinPasswordSize int           `env:"MIN_PASSWORD_SIZE" envDefault:"8"`

	// Responder (any OpenAI-compatible endpoint)
	ResponderBaseURL   string        `env:"RESPONDER_BASE_URL"`
	ResponderAPIKey    string        `env:"RESPONDER_API_KEY,notEmpty"`
	ResponderModel     string        `env:"RESPONDER_MODEL" envDefault:"gemini-2.0-flash"`
	ResponderMaxTokens int           `env:"RESPONDER_MAX_TOKENS" envDefault:"1000"`
	ResponderTemp      float32       `env:"RESPONDER_TEMPERATURE" envDefault:"0.7"`
	ResponderTimeout   time.Duration `env:"RESPONDER_TIMEOUT" envDefault:"120s"`

	// Janitor
	OrphanSweepEnabled  bool          `env:"ORPHAN_SWEEP_ENABLED" envDefault:"true"`
	OrphanSweepInterval int           `env:"ORPHAN_SWEEP_INTERVAL_MINUTES" envDefault:"60"`
	OrphanMinAge        time.Duration `env:"ORPHAN_MIN_AGE" envDefault:"1h"`

	// Observability / Logging
	OTLPEndpoint     string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName      string `env:"SERVICE_NAME" envDefault:"tangent-server"`
	ServiceNamespace string `env:"SERVICE_NAMESPACE" envDefault:"tangent"`
	Environment      string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string `env:"LOG_FORMAT" envDefault:"console"`

	// Features
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"true"`
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("HTTP_PORT out of range: %d", cfg.HTTPPort)
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 16 bytes")
	}
	if cfg.OrphanSweepInterval <= 0 {
		cfg.OrphanSweepInterval = 60
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	globalConfig = cfg
	return cfg, nil
}

// GetGlobal returns the last loaded config, or nil before Load.
func GetGlobal() *Config {
	return globalConfig
}
