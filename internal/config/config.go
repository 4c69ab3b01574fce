package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	CurrencyCode   string
	MinOrderQty    int
	CartTTL        time.Duration
	WhatsAppNumber string

	OpportunityProgressRatio float64
	OpportunityMaxGap        int

	CatalogCacheTTL     time.Duration
	CatalogDefaultLimit int
	CatalogMaxLimit     int

	IdempotencyTTL   time.Duration
	LockTTL          time.Duration
	LockRetryBackoff time.Duration

	AnalyticsDefaultRange int

	CRMWebhookEnabled     bool
	CRMWebhookURL         string
	CRMWebhookSecret      string
	CRMWebhookMaxAttempts int
	CRMWebhookTimeout     time.Duration

	CircuitWebhookMinReq      int
	CircuitWebhookFailureRate float64
	CircuitWebhookOpenFor     time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CurrencyCode:   valueOrDefault(k.String("CURRENCY_CODE"), "BRL"),
		MinOrderQty:    parseInt(k.String("CART_MIN_ORDER_QTY"), 30),
		CartTTL:        parseDuration(k.String("CART_TTL"), "168h"),
		WhatsAppNumber: strings.TrimSpace(k.String("WHATSAPP_NUMBER")),

		OpportunityProgressRatio: parseFloat(k.String("OPPORTUNITY_PROGRESS_RATIO"), 0.8),
		OpportunityMaxGap:        parseInt(k.String("OPPORTUNITY_MAX_GAP"), 100),

		CatalogCacheTTL:     parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		CatalogDefaultLimit: parseInt(k.String("CATALOG_DEFAULT_LIMIT"), 24),
		CatalogMaxLimit:     parseInt(k.String("CATALOG_MAX_LIMIT"), 100),

		IdempotencyTTL:   parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		LockTTL:          parseDuration(k.String("CART_LOCK_TTL"), "10s"),
		LockRetryBackoff: parseDuration(k.String("CART_LOCK_RETRY_BACKOFF"), "50ms"),

		AnalyticsDefaultRange: parseInt(k.String("ANALYTICS_DEFAULT_RANGE_DAYS"), 30),

		CRMWebhookEnabled:     parseBool(k.String("CRM_WEBHOOK_ENABLED")),
		CRMWebhookURL:         strings.TrimSpace(k.String("CRM_WEBHOOK_URL")),
		CRMWebhookSecret:      k.String("CRM_WEBHOOK_SECRET"),
		CRMWebhookMaxAttempts: parseInt(k.String("CRM_WEBHOOK_MAX_ATTEMPTS"), 6),
		CRMWebhookTimeout:     parseDuration(k.String("CRM_WEBHOOK_TIMEOUT"), "10s"),

		CircuitWebhookMinReq:      parseInt(k.String("CIRCUIT_WEBHOOK_MIN_REQ"), 10),
		CircuitWebhookFailureRate: parseFloat(k.String("CIRCUIT_WEBHOOK_FAILURE_RATE"), 0.5),
		CircuitWebhookOpenFor:     parseDuration(k.String("CIRCUIT_WEBHOOK_OPEN_FOR"), "30s"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.WhatsAppNumber == "" {
		return nil, errors.New("WHATSAPP_NUMBER is required")
	}
	if cfg.CRMWebhookEnabled && cfg.CRMWebhookURL == "" {
		return nil, errors.New("CRM_WEBHOOK_URL is required when webhook delivery is enabled")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
