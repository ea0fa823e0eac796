// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, rate limiting, the
// completion provider, message quotas, session history, and observability.
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "mindcare-chat")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// LLMConfig selects and tunes the external completion provider.
type LLMConfig struct {
	Provider string        // LLM_PROVIDER: gemini|openai|anthropic|ark
	APIKey   string        // LLM_API_KEY
	Model    string        // LLM_MODEL
	BaseURL  string        // LLM_BASE_URL (OpenAI-compatible endpoints)
	Region   string        // LLM_REGION (ark only)
	Timeout  time.Duration // LLM_TIMEOUT

	Temperature     float64 // LLM_TEMPERATURE (> 0)
	TopK            int     // LLM_TOP_K
	TopP            float64 // LLM_TOP_P in (0,1]
	MaxOutputTokens int     // LLM_MAX_OUTPUT_TOKENS
	SendTopK        bool    // LLM_SEND_TOP_K, OpenAI-compatible adapters only
}

// QuotaConfig holds the daily message allowances.
type QuotaConfig struct {
	BaseDailyLimit  int // QUOTA_BASE_DAILY_LIMIT, granted to every registered user
	GuestDailyLimit int // QUOTA_GUEST_DAILY_LIMIT, per guest session
}

// HistoryConfig configures the conversational context store.
type HistoryConfig struct {
	Driver   string        // HISTORY_DRIVER: memory|redis
	MaxTurns int           // HISTORY_MAX_TURNS
	IdleTTL  time.Duration // HISTORY_IDLE_TTL

	RedisAddr     string // REDIS_ADDR
	RedisPassword string // REDIS_PASSWORD
	RedisDB       int    // REDIS_DB
}

// ScreenConfig adds deployment-specific terms to the built-in keyword lists.
type ScreenConfig struct {
	ExtraInappropriate []string // SCREEN_EXTRA_INAPPROPRIATE (CSV)
	ExtraCrisis        []string // SCREEN_EXTRA_CRISIS (CSV)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s (provider calls are slow)
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath         string // SQLite path
	MaxPromptRunes int    // longest accepted user message

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Chat core
	LLM     LLMConfig
	Quota   QuotaConfig
	History HistoryConfig
	Screen  ScreenConfig

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
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:         getenv("DB_PATH", "mindcare.db"),
		MaxPromptRunes: getint("MAX_PROMPT_RUNES", 2000),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 2.0),
		RateBurst: getint("RATE_BURST", 5),

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

		// Chat core
		LLM: LLMConfig{
			Provider:        strings.ToLower(getenv("LLM_PROVIDER", "gemini")),
			APIKey:          getenv("LLM_API_KEY", ""),
			Model:           getenv("LLM_MODEL", ""),
			BaseURL:         getenv("LLM_BASE_URL", ""),
			Region:          getenv("LLM_REGION", ""),
			Timeout:         getdur("LLM_TIMEOUT", 30*time.Second),
			Temperature:     getfloat("LLM_TEMPERATURE", 0.7),
			TopK:            getint("LLM_TOP_K", 40),
			TopP:            getfloat("LLM_TOP_P", 0.95),
			MaxOutputTokens: getint("LLM_MAX_OUTPUT_TOKENS", 1024),
		},
		Quota: QuotaConfig{
			BaseDailyLimit:  getint("QUOTA_BASE_DAILY_LIMIT", 10),
			GuestDailyLimit: getint("QUOTA_GUEST_DAILY_LIMIT", 5),
		},
		History: HistoryConfig{
			Driver:        strings.ToLower(getenv("HISTORY_DRIVER", "memory")),
			MaxTurns:      getint("HISTORY_MAX_TURNS", 20),
			IdleTTL:       getdur("HISTORY_IDLE_TTL", 2*time.Hour),
			RedisAddr:     getenv("REDIS_ADDR", ""),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getint("REDIS_DB", 0),
		},
		Screen: ScreenConfig{
			ExtraInappropriate: splitCSV(getenv("SCREEN_EXTRA_INAPPROPRIATE", "")),
			ExtraCrisis:        splitCSV(getenv("SCREEN_EXTRA_CRISIS", "")),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "mindcare-chat"),
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
	if cfg.LLM.Provider == "google" {
		cfg.LLM.Provider = "gemini"
	}
	// api.openai.com rejects unknown body fields such as top_k.
	cfg.LLM.SendTopK = getbool("LLM_SEND_TOP_K", cfg.LLM.Provider == "gemini")

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
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.MaxPromptRunes <= 0 {
		return cfg, errors.New("MAX_PROMPT_RUNES must be > 0")
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
	switch cfg.LLM.Provider {
	case "gemini", "openai", "anthropic", "ark":
	default:
		return cfg, errors.New("LLM_PROVIDER must be one of: gemini, openai, anthropic, ark")
	}
	if cfg.LLM.Timeout <= 0 {
		return cfg, errors.New("LLM_TIMEOUT must be > 0")
	}
	if cfg.LLM.Temperature <= 0 || cfg.LLM.Temperature > 2 {
		return cfg, errors.New("LLM_TEMPERATURE must be in (0,2]")
	}
	if cfg.LLM.TopP <= 0 || cfg.LLM.TopP > 1 {
		return cfg, errors.New("LLM_TOP_P must be in (0,1]")
	}
	if cfg.LLM.TopK < 1 {
		return cfg, errors.New("LLM_TOP_K must be >= 1")
	}
	if cfg.LLM.MaxOutputTokens < 1 {
		return cfg, errors.New("LLM_MAX_OUTPUT_TOKENS must be >= 1")
	}
	if cfg.Quota.BaseDailyLimit < 0 || cfg.Quota.GuestDailyLimit < 0 {
		return cfg, errors.New("quota limits must be >= 0")
	}
	switch cfg.History.Driver {
	case "memory":
	case "redis":
		if strings.TrimSpace(cfg.History.RedisAddr) == "" {
			return cfg, errors.New("REDIS_ADDR is required when HISTORY_DRIVER=redis")
		}
	default:
		return cfg, errors.New("HISTORY_DRIVER must be one of: memory, redis")
	}
	if cfg.History.MaxTurns < 2 {
		return cfg, errors.New("HISTORY_MAX_TURNS must be >= 2")
	}
	if cfg.History.IdleTTL <= 0 {
		return cfg, errors.New("HISTORY_IDLE_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

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
