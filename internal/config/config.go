// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the generation provider, point costs,
// object storage, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
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

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-studio-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ProviderConfig holds the settings for the remote generative-AI provider.
// The API key is opaque to the application; it is attached to outgoing
// requests and never inspected or logged.
type ProviderConfig struct {
	APIKey       string        // PROVIDER_API_KEY
	BaseURL      string        // PROVIDER_BASE_URL
	ImageModel   string        // PROVIDER_IMAGE_MODEL
	VideoModel   string        // PROVIDER_VIDEO_MODEL
	Timeout      time.Duration // PROVIDER_TIMEOUT per HTTP call
	PollInterval time.Duration // PROVIDER_POLL_INTERVAL between video job polls
	MaxPolls     int           // PROVIDER_MAX_POLLS before the job is abandoned
}

// StorageConfig holds object-store settings for generated asset bytes.
type StorageConfig struct {
	Endpoint   string        // STORAGE_ENDPOINT (host:port)
	AccessKey  string        // STORAGE_ACCESS_KEY
	SecretKey  string        // STORAGE_SECRET_KEY
	Bucket     string        // STORAGE_BUCKET
	UseSSL     bool          // STORAGE_USE_SSL
	PresignTTL time.Duration // STORAGE_PRESIGN_TTL for result URLs
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// App
	DBDSN         string // SQLite DSN; defaults to a shared in-memory database
	UserName      string // display name of the session user
	InitialPoints int64  // point balance seeded at startup
	ImageCost     int64  // points deducted per completed image
	VideoCost     int64  // points deducted per completed video

	// Provider / storage
	Provider ProviderConfig
	Storage  StorageConfig

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
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBDSN:         getenv("DB_DSN", "file:studio?mode=memory&cache=shared"),
		UserName:      getenv("USER_NAME", "Admin"),
		InitialPoints: getint64("INITIAL_POINTS", 34250),
		ImageCost:     getint64("IMAGE_COST", 10),
		VideoCost:     getint64("VIDEO_COST", 250),

		// Provider
		Provider: ProviderConfig{
			APIKey:       getenv("PROVIDER_API_KEY", ""),
			BaseURL:      getenv("PROVIDER_BASE_URL", "https://generativelanguage.googleapis.com"),
			ImageModel:   getenv("PROVIDER_IMAGE_MODEL", "gemini-2.5-flash-image"),
			VideoModel:   getenv("PROVIDER_VIDEO_MODEL", "veo-3.1-fast-generate-preview"),
			Timeout:      getdur("PROVIDER_TIMEOUT", 60*time.Second),
			PollInterval: getdur("PROVIDER_POLL_INTERVAL", 5*time.Second),
			MaxPolls:     getint("PROVIDER_MAX_POLLS", 60),
		},

		// Storage
		Storage: StorageConfig{
			Endpoint:   getenv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey:  getenv("STORAGE_ACCESS_KEY", ""),
			SecretKey:  getenv("STORAGE_SECRET_KEY", ""),
			Bucket:     getenv("STORAGE_BUCKET", "studio-assets"),
			UseSSL:     getbool("STORAGE_USE_SSL", false),
			PresignTTL: getdur("STORAGE_PRESIGN_TTL", 24*time.Hour),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-studio-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBDSN) == "" {
		return cfg, errors.New("DB_DSN must not be empty")
	}
	if strings.TrimSpace(cfg.UserName) == "" {
		return cfg, errors.New("USER_NAME must not be empty")
	}
	if cfg.ImageCost < 0 || cfg.VideoCost < 0 {
		return cfg, errors.New("IMAGE_COST and VIDEO_COST must be >= 0")
	}
	if strings.TrimSpace(cfg.Provider.BaseURL) == "" {
		return cfg, errors.New("PROVIDER_BASE_URL must not be empty")
	}
	if cfg.Provider.Timeout <= 0 {
		return cfg, errors.New("PROVIDER_TIMEOUT must be > 0")
	}
	if cfg.Provider.PollInterval <= 0 {
		return cfg, errors.New("PROVIDER_POLL_INTERVAL must be > 0")
	}
	if cfg.Provider.MaxPolls < 1 {
		return cfg, errors.New("PROVIDER_MAX_POLLS must be >= 1")
	}
	if strings.TrimSpace(cfg.Storage.Bucket) == "" {
		return cfg, errors.New("STORAGE_BUCKET must not be empty")
	}
	if cfg.Storage.PresignTTL <= 0 {
		return cfg, errors.New("STORAGE_PRESIGN_TTL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// CostFor returns the point cost for the given media kind.
func (c Config) CostFor(kind string) int64 {
	if kind == "video" {
		return c.VideoCost
	}
	return c.ImageCost
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
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
