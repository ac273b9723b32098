// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, database selection, rate limiting, and observability settings.
//
// Variables are read through a koanf instance fed by the env provider, so
// the process environment (including anything godotenv loaded from .env) is
// the single source.
package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// LogConfig controls the global zerolog logger.
type LogConfig struct {
	Level      string // debug|info|warn|error|fatal|panic
	Pretty     bool   // console writer instead of JSON
	Redact     bool   // scrub PII from access logs
	File       string // optional rotating log file
	MaxSizeMB  int    // rotate after this many megabytes
	MaxBackups int    // rotated files kept
	MaxAgeDays int    // days a rotated file is kept
}

// DBConfig selects and locates the relational store.
type DBConfig struct {
	Driver string // sqlite|postgres
	Path   string // SQLite file (sqlite)
	URL    string // DSN (postgres)
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful drain window
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test

	// Logging / Docs
	Log            LogConfig
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DB DBConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	k := koanf.New(".")
	// Keys keep their environment spelling (PORT, DB_DRIVER, ...).
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return Config{}, err
	}
	src := source{k: k}

	cfg := Config{
		// Server
		Port:              src.str("PORT", "5000"),
		ReadTimeout:       src.dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: src.dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      src.dur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       src.dur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   src.dur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    src.int("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(src.int("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(src.str("GIN_MODE", "release")),

		// Logging / Docs
		Log: LogConfig{
			Level:      strings.ToLower(src.str("LOG_LEVEL", "info")),
			Pretty:     src.bool("LOG_PRETTY", false),
			Redact:     src.bool("LOG_REDACT", true),
			File:       src.str("LOG_FILE", ""),
			MaxSizeMB:  src.int("LOG_MAX_SIZE_MB", 100),
			MaxBackups: src.int("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: src.int("LOG_MAX_AGE_DAYS", 28),
		},
		SwaggerEnabled: src.bool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(src.str("API_BASE_PATH", "/api")),

		// Storage
		DB: DBConfig{
			Driver: strings.ToLower(src.str("DB_DRIVER", DriverSQLite)),
			Path:   src.str("DB_PATH", "pets.db"),
			URL:    src.str("DATABASE_URL", ""),
		},

		// Rate limiting
		RateRPS:   src.float("RATE_RPS", 5.0),
		RateBurst: src.int("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(src.str("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: src.bool("ENABLE_HSTS", false),
			HSTSMaxAge: src.dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: src.dur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     src.bool("OTEL_ENABLED", false),
			Endpoint:    src.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    src.bool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: src.str("OTEL_SERVICE_NAME", "pet-weight-backend"),
			SampleRatio: src.float("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.Log.Level == "warning" {
		cfg.Log.Level = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = DriverPostgres
	}

	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be > 0")
	}
	if cfg.Log.File != "" && (cfg.Log.MaxSizeMB <= 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0) {
		return errors.New("LOG_MAX_SIZE_MB must be > 0 and LOG_MAX_BACKUPS, LOG_MAX_AGE_DAYS >= 0")
	}
	switch cfg.DB.Driver {
	case DriverSQLite:
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// DSN returns the connection string for the selected driver.
func (c DBConfig) DSN() string {
	if c.Driver == DriverPostgres {
		return c.URL
	}
	return c.Path
}

// ---- helpers ----

// source reads typed values from koanf, falling back to def when a key is
// unset, empty, or unparsable.
type source struct {
	k *koanf.Koanf
}

func (s source) str(key, def string) string {
	if v := s.k.String(key); v != "" {
		return v
	}
	return def
}

func (s source) float(key string, def float64) float64 {
	if v := s.k.String(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func (s source) int(key string, def int) int {
	if v := s.k.String(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s source) bool(key string, def bool) bool {
	if v := s.k.String(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func (s source) dur(key string, def time.Duration) time.Duration {
	if v := s.k.String(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
