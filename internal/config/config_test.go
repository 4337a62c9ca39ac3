package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "3000" {
		t.Fatalf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.OpenAIModel != "gpt-4" {
		t.Fatalf("OpenAIModel = %q, want gpt-4", cfg.OpenAIModel)
	}
	if cfg.MaxCodeLength != 50000 {
		t.Fatalf("MaxCodeLength = %d, want 50000", cfg.MaxCodeLength)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.MaxRequestsPerMin != 10 {
		t.Fatalf("MaxRequestsPerMin = %d, want 10", cfg.MaxRequestsPerMin)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Fatalf("RateLimitWindow = %v, want 1m", cfg.RateLimitWindow)
	}
	if cfg.OpenAITemperature != 0.1 {
		t.Fatalf("OpenAITemperature = %v, want 0.1", cfg.OpenAITemperature)
	}
	if cfg.CORSOrigin != "*" {
		t.Fatalf("CORSOrigin = %q, want *", cfg.CORSOrigin)
	}
	if cfg.Addr() != "localhost:3000" {
		t.Fatalf("Addr() = %q", cfg.Addr())
	}
}

func TestLoadRequestTimeoutMillisAndDuration(t *testing.T) {
	setEnvEmpty(t)

	t.Setenv("REQUEST_TIMEOUT", "1500")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestTimeout != 1500*time.Millisecond {
		t.Fatalf("RequestTimeout = %v, want 1.5s", cfg.RequestTimeout)
	}

	t.Setenv("REQUEST_TIMEOUT", "45s")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Fatalf("RequestTimeout = %v, want 45s", cfg.RequestTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "MAX_CODE_LENGTH", value: "abc"},
		{key: "MAX_CODE_LENGTH", value: "0"},
		{key: "MAX_REQUESTS_PER_MINUTE", value: "-1"},
		{key: "OPENAI_TEMPERATURE", value: "3"},
		{key: "LOG_REQUESTS", value: "maybe"},
		{key: "REQUEST_TIMEOUT", value: "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setEnvEmpty(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	setEnvEmpty(t)

	path := filepath.Join(t.TempDir(), "converter.yaml")
	content := "openai_model: gpt-4o-mini\nMAX_REQUESTS_PER_MINUTE: 25\nPORT: 8088\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONVERTER_CONFIG_FILE", path)
	t.Setenv("PORT", "9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("OpenAIModel = %q, want value from file", cfg.OpenAIModel)
	}
	if cfg.MaxRequestsPerMin != 25 {
		t.Fatalf("MaxRequestsPerMin = %d, want 25", cfg.MaxRequestsPerMin)
	}
	if cfg.Port != "9000" {
		t.Fatalf("Port = %q, env should win over file", cfg.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	setEnvEmpty(t)
	t.Setenv("CONVERTER_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func setEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"CONVERTER_CONFIG_FILE",
		"HOST",
		"PORT",
		"FRONTEND_URL",
		"SHUTDOWN_TIMEOUT",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"OPENAI_MODEL",
		"OPENAI_MAX_TOKENS",
		"OPENAI_TEMPERATURE",
		"OPENAI_TIMEOUT",
		"DATABASE_URL",
		"PERSIST_SYNC",
		"HISTORY_QUEUE_SIZE",
		"MAX_CODE_LENGTH",
		"REQUEST_TIMEOUT",
		"MAX_REQUESTS_PER_MINUTE",
		"RATE_LIMIT_WINDOW",
		"RATE_LIMIT_MAX_CLIENTS",
		"RATE_LIMIT_SWEEP_EVERY",
		"TRUST_PROXY",
		"RATE_LIMIT_STATS_REDIS_ADDR",
		"RATE_LIMIT_STATS_REDIS_PASSWORD",
		"RATE_LIMIT_STATS_REDIS_DB",
		"RATE_LIMIT_STATS_PREFIX",
		"LOG_LEVEL",
		"LOG_REQUESTS",
		"METRICS_NAMESPACE",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
