package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_DefaultsAreValid(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad panicked on defaults: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath default = %q", cfg.APIBasePath)
	}
	if cfg.History.MaxTurns != 20 || cfg.History.Driver != "memory" {
		t.Fatalf("history defaults unexpected: %+v", cfg.History)
	}
	if cfg.Quota.BaseDailyLimit != 10 || cfg.Quota.GuestDailyLimit != 5 {
		t.Fatalf("quota defaults unexpected: %+v", cfg.Quota)
	}
	if cfg.LLM.Provider != "gemini" || cfg.LLM.TopK != 40 || cfg.LLM.MaxOutputTokens != 1024 {
		t.Fatalf("llm defaults unexpected: %+v", cfg.LLM)
	}
}

func TestLoad_OverridesAndNormalization(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("WRITE_TIMEOUT", "90s")
	t.Setenv("GIN_MODE", "weird")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "api/v2/")
	t.Setenv("DB_PATH", "care.sqlite")
	t.Setenv("MAX_PROMPT_RUNES", "500")
	t.Setenv("RATE_RPS", "x")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.vn , , http://b ")

	t.Setenv("LLM_PROVIDER", "Google")
	t.Setenv("LLM_MODEL", "gemini-2.0-flash")
	t.Setenv("LLM_TEMPERATURE", "0.3")
	t.Setenv("LLM_TOP_P", "0.8")
	t.Setenv("LLM_TIMEOUT", "5s")

	t.Setenv("QUOTA_BASE_DAILY_LIMIT", "3")
	t.Setenv("QUOTA_GUEST_DAILY_LIMIT", "1")

	t.Setenv("HISTORY_DRIVER", "REDIS")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("HISTORY_MAX_TURNS", "10")
	t.Setenv("HISTORY_IDLE_TTL", "30m")

	t.Setenv("SCREEN_EXTRA_CRISIS", "nhảy cầu, ,uống thuốc ngủ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" || cfg.ReadTimeout != 2*time.Second || cfg.WriteTimeout != 90*time.Second || cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || cfg.APIBasePath != "/api/v2" {
		t.Fatalf("logging fields unexpected: %+v", cfg)
	}
	if cfg.DBPath != "care.sqlite" || cfg.MaxPromptRunes != 500 {
		t.Fatalf("app fields unexpected: %+v", cfg)
	}
	if cfg.RateRPS != 2.0 {
		t.Fatalf("RateRPS should fall back to default, got %v", cfg.RateRPS)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.vn", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}

	if cfg.LLM.Provider != "gemini" || cfg.LLM.Model != "gemini-2.0-flash" ||
		cfg.LLM.Temperature != 0.3 || cfg.LLM.TopP != 0.8 || cfg.LLM.Timeout != 5*time.Second {
		t.Fatalf("llm unexpected: %+v", cfg.LLM)
	}
	if cfg.Quota.BaseDailyLimit != 3 || cfg.Quota.GuestDailyLimit != 1 {
		t.Fatalf("quota unexpected: %+v", cfg.Quota)
	}
	if cfg.History.Driver != "redis" || cfg.History.RedisAddr != "cache:6379" || cfg.History.RedisDB != 2 ||
		cfg.History.MaxTurns != 10 || cfg.History.IdleTTL != 30*time.Minute {
		t.Fatalf("history unexpected: %+v", cfg.History)
	}
	if !reflect.DeepEqual(cfg.Screen.ExtraCrisis, []string{"nhảy cầu", "uống thuốc ngủ"}) {
		t.Fatalf("screen extras unexpected: %#v", cfg.Screen.ExtraCrisis)
	}
}

func TestLoad_SendTopKFollowsProvider(t *testing.T) {
	cases := []struct {
		provider, env string
		want          bool
	}{
		{provider: "gemini", want: true},
		{provider: "openai", want: false},
		{provider: "openai", env: "true", want: true},
		{provider: "gemini", env: "off", want: false},
	}
	for _, tc := range cases {
		t.Setenv("LLM_PROVIDER", tc.provider)
		t.Setenv("LLM_SEND_TOP_K", tc.env)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load(%s): %v", tc.provider, err)
		}
		if cfg.LLM.SendTopK != tc.want {
			t.Fatalf("provider=%s env=%q: SendTopK = %v, want %v", tc.provider, tc.env, cfg.LLM.SendTopK, tc.want)
		}
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"log level", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"empty port", map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{"zero timeout", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"header bytes", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"empty db path", map[string]string{"DB_PATH": "  "}, "DB_PATH must not be empty"},
		{"prompt runes", map[string]string{"MAX_PROMPT_RUNES": "0"}, "MAX_PROMPT_RUNES"},
		{"rate rps", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"rate burst", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"hsts", map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{"idempotency ttl", map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{"provider", map[string]string{"LLM_PROVIDER": "cohere"}, "LLM_PROVIDER"},
		{"llm timeout", map[string]string{"LLM_TIMEOUT": "0s"}, "LLM_TIMEOUT"},
		{"temperature", map[string]string{"LLM_TEMPERATURE": "0"}, "LLM_TEMPERATURE"},
		{"top p", map[string]string{"LLM_TOP_P": "1.5"}, "LLM_TOP_P"},
		{"top k", map[string]string{"LLM_TOP_K": "0"}, "LLM_TOP_K"},
		{"max tokens", map[string]string{"LLM_MAX_OUTPUT_TOKENS": "0"}, "LLM_MAX_OUTPUT_TOKENS"},
		{"quota", map[string]string{"QUOTA_BASE_DAILY_LIMIT": "-2"}, "quota limits"},
		{"history driver", map[string]string{"HISTORY_DRIVER": "memcached"}, "HISTORY_DRIVER"},
		{"redis addr", map[string]string{"HISTORY_DRIVER": "redis"}, "REDIS_ADDR"},
		{"history turns", map[string]string{"HISTORY_MAX_TURNS": "1"}, "HISTORY_MAX_TURNS"},
		{"history ttl", map[string]string{"HISTORY_IDLE_TTL": "0s"}, "HISTORY_IDLE_TTL"},
		{"otel ratio", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_numbersAndDurations(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	t.Setenv("F_BAD", "nope")
	if getfloat("F_VALID", 0) != 3.14 || getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat unexpected")
	}
	t.Setenv("I_VALID", "42")
	t.Setenv("I_BAD", "x")
	if getint("I_VALID", 0) != 42 || getint("I_BAD", 7) != 7 {
		t.Fatalf("getint unexpected")
	}
	t.Setenv("D_VALID", "150ms")
	t.Setenv("D_BAD", "zzz")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond || getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur unexpected")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for _, v := range []string{"1", "TRUE", " yes ", "Y", "On"} {
		t.Setenv("B_T", v)
		if !getbool("B_T", false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for _, v := range []string{"0", "false", " no ", "N", "Off"} {
		t.Setenv("B_F", v)
		if getbool("B_F", true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_ODD", "maybe")
	if !getbool("B_ODD", true) {
		t.Fatalf("getbool should keep default on unknown value")
	}
}

func TestHelpers_splitCSV_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: %#v", got)
	}
	for in, want := range map[string]string{"": "/", "v1": "/v1", "/v1/": "/v1", " / ": "/"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Exit(m.Run())
}
