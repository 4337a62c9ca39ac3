package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all runtime settings for the converter gateway.
type Config struct {
	Host            string
	Port            string
	CORSOrigin      string
	ShutdownTimeout time.Duration

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAIMaxTokens   int
	OpenAITemperature float64
	OpenAITimeout     time.Duration

	DatabaseURL      string
	PersistSync      bool
	HistoryQueueSize int

	MaxCodeLength       int
	RequestTimeout      time.Duration
	MaxRequestsPerMin   int
	RateLimitWindow     time.Duration
	RateLimitMaxClients int
	RateLimitSweepEvery time.Duration
	TrustProxy          bool

	RateLimitStatsRedisAddr     string
	RateLimitStatsRedisPassword string
	RateLimitStatsRedisDB       int
	RateLimitStatsPrefix        string

	LogLevel         string
	LogRequests      bool
	MetricsNamespace string
}

// Addr is the listen address built from Host and Port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Load reads environment variables, optionally layered over a YAML file
// named by CONVERTER_CONFIG_FILE, and applies defaults.
func Load() (Config, error) {
	file, err := loadFile(strings.TrimSpace(os.Getenv("CONVERTER_CONFIG_FILE")))
	if err != nil {
		return Config{}, err
	}
	src := source{file: file}

	cfg := Config{
		Host:                 src.str("HOST", "localhost"),
		Port:                 src.str("PORT", "3000"),
		CORSOrigin:           src.str("FRONTEND_URL", "*"),
		OpenAIAPIKey:         src.str("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        src.str("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:          src.str("OPENAI_MODEL", "gpt-4"),
		DatabaseURL:          src.str("DATABASE_URL", "file:./dev.db"),
		RateLimitStatsPrefix: src.str("RATE_LIMIT_STATS_PREFIX", "converter:ratelimit"),
		LogLevel:             src.str("LOG_LEVEL", "info"),
		MetricsNamespace:     src.str("METRICS_NAMESPACE", "converter"),

		RateLimitStatsRedisAddr:     src.str("RATE_LIMIT_STATS_REDIS_ADDR", ""),
		RateLimitStatsRedisPassword: src.str("RATE_LIMIT_STATS_REDIS_PASSWORD", ""),
	}

	if cfg.OpenAIMaxTokens, err = src.integer("OPENAI_MAX_TOKENS", 2048); err != nil {
		return Config{}, err
	}
	if cfg.OpenAITemperature, err = src.float("OPENAI_TEMPERATURE", 0.1); err != nil {
		return Config{}, err
	}
	if cfg.OpenAITimeout, err = src.duration("OPENAI_TIMEOUT", 2*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = src.duration("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PersistSync, err = src.boolean("PERSIST_SYNC", false); err != nil {
		return Config{}, err
	}
	if cfg.HistoryQueueSize, err = src.integer("HISTORY_QUEUE_SIZE", 256); err != nil {
		return Config{}, err
	}
	if cfg.MaxCodeLength, err = src.integer("MAX_CODE_LENGTH", 50000); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = src.duration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.MaxRequestsPerMin, err = src.integer("MAX_REQUESTS_PER_MINUTE", 10); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitWindow, err = src.duration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitMaxClients, err = src.integer("RATE_LIMIT_MAX_CLIENTS", 10000); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitSweepEvery, err = src.duration("RATE_LIMIT_SWEEP_EVERY", 2*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.TrustProxy, err = src.boolean("TRUST_PROXY", false); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitStatsRedisDB, err = src.integer("RATE_LIMIT_STATS_REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.LogRequests, err = src.boolean("LOG_REQUESTS", false); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.MaxCodeLength <= 0 {
		return fmt.Errorf("MAX_CODE_LENGTH must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.MaxRequestsPerMin <= 0 {
		return fmt.Errorf("MAX_REQUESTS_PER_MINUTE must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.RateLimitMaxClients < 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_CLIENTS must be >= 0")
	}
	if c.OpenAIMaxTokens <= 0 {
		return fmt.Errorf("OPENAI_MAX_TOKENS must be positive")
	}
	if c.OpenAITemperature < 0 || c.OpenAITemperature > 2 {
		return fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2")
	}
	if c.HistoryQueueSize <= 0 {
		return fmt.Errorf("HISTORY_QUEUE_SIZE must be positive")
	}
	return nil
}

// loadFile reads a flat YAML mapping whose keys are the environment
// variable names, e.g. `OPENAI_MODEL: gpt-4o`.
func loadFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return values, nil
}

// source resolves a key from the environment first, then the config file.
type source struct {
	file map[string]string
}

func (s source) lookup(key string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return s.file[key]
}

func (s source) str(key, fallback string) string {
	if v := s.lookup(key); v != "" {
		return v
	}
	return fallback
}

func (s source) integer(key string, fallback int) (int, error) {
	v := s.lookup(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func (s source) float(key string, fallback float64) (float64, error) {
	v := s.lookup(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

// duration accepts a bare integer as milliseconds (REQUEST_TIMEOUT=30000)
// or a Go duration string (REQUEST_TIMEOUT=30s).
func (s source) duration(key string, fallback time.Duration) (time.Duration, error) {
	v := s.lookup(key)
	if v == "" {
		return fallback, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func (s source) boolean(key string, fallback bool) (bool, error) {
	v := strings.ToLower(s.lookup(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: invalid bool %q", key, v)
	}
}
