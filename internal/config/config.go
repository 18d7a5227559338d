package config

import (
	"errors"
	"fmt"
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
	RedisURL           string
	CORSAllowedOrigins []string

	Shipping Shipping
	Carrier  CarrierHTTP

	RateLimitWindow time.Duration
	RateLimitMax    int
	BodyLimitBytes  int64

	Obs Obs
}

// Shipping configures the rate calculation itself.
type Shipping struct {
	CarrierRatesURL string
	CarrierAPIKey   string
	RateSlabsURL    string
	RateSlabsAPIKey string
	SlabCacheTTL    time.Duration
	HomeCountry     string
	Currency        string

	SyntheticSlug        string
	SyntheticAccountID   string
	SyntheticDescription string
	SyntheticServiceType string
	SyntheticServiceName string
	SyntheticMaxWeightKg float64
}

// CarrierHTTP configures the outbound client shared by the carrier and slab APIs.
type CarrierHTTP struct {
	Timeout             time.Duration
	MaxAttempts         int
	BaseBackoff         time.Duration
	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration
}

// Obs configures logging, metrics and tracing.
type Obs struct {
	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	TracingExporter  string
	OTLPEndpoint     string
	TracingSampling  float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return fromKoanf(k)
}

// LoadForTests builds a Config from explicit values instead of the process environment.
func LoadForTests(values map[string]string) (*Config, error) {
	k := koanf.New(".")
	for key, value := range values {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
	}
	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		Shipping: Shipping{
			CarrierRatesURL:      strings.TrimSpace(k.String("SHIPPING_CARRIER_RATES_URL")),
			CarrierAPIKey:        strings.TrimSpace(k.String("SHIPPING_CARRIER_API_KEY")),
			RateSlabsURL:         strings.TrimSpace(k.String("SHIPPING_RATE_SLABS_URL")),
			RateSlabsAPIKey:      strings.TrimSpace(k.String("SHIPPING_RATE_SLABS_API_KEY")),
			SlabCacheTTL:         parseDuration(k.String("SHIPPING_SLAB_CACHE_TTL"), "10m"),
			HomeCountry:          strings.ToUpper(valueOrDefault(k.String("SHIPPING_HOME_COUNTRY"), "THA")),
			Currency:             strings.ToUpper(valueOrDefault(k.String("SHIPPING_CURRENCY"), "THB")),
			SyntheticSlug:        valueOrDefault(k.String("SHIPPING_SYNTHETIC_SLUG"), "thailand-post"),
			SyntheticAccountID:   valueOrDefault(k.String("SHIPPING_SYNTHETIC_ACCOUNT_ID"), "thailand-post-domestic"),
			SyntheticDescription: valueOrDefault(k.String("SHIPPING_SYNTHETIC_DESCRIPTION"), "Thailand Post"),
			SyntheticServiceType: valueOrDefault(k.String("SHIPPING_SYNTHETIC_SERVICE_TYPE"), "thailand-post_ems_domestic"),
			SyntheticServiceName: valueOrDefault(k.String("SHIPPING_SYNTHETIC_SERVICE_NAME"), "EMS Domestic"),
			SyntheticMaxWeightKg: parseFloat(k.String("SHIPPING_SYNTHETIC_MAX_WEIGHT_KG"), 35),
		},
		Carrier: CarrierHTTP{
			Timeout:             parseDuration(k.String("CARRIER_HTTP_TIMEOUT"), "15s"),
			MaxAttempts:         parseInt(k.String("CARRIER_MAX_ATTEMPTS"), 1),
			BaseBackoff:         parseDuration(k.String("CARRIER_RETRY_BACKOFF"), "200ms"),
			BreakerMinRequests:  parseInt(k.String("CARRIER_BREAKER_MIN_REQUESTS"), 5),
			BreakerFailureRatio: parseFloat(k.String("CARRIER_BREAKER_FAILURE_RATIO"), 0.5),
			BreakerOpenFor:      parseDuration(k.String("CARRIER_BREAKER_OPEN_FOR"), "30s"),
		},
		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:    parseInt(k.String("RATE_LIMIT_MAX"), 120),
		BodyLimitBytes:  int64(parseInt(k.String("HTTP_BODY_LIMIT_BYTES"), 1<<20)),
		Obs: Obs{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsEnabled:   parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "shiprate"),
			MetricsBuckets:   k.String("OBS_METRICS_BUCKETS_MS"),
			TracingEnabled:   parseBool(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			TracingSampling:  parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
		},
	}

	if cfg.Shipping.CarrierRatesURL == "" && !cfg.IsDevelopment() {
		return nil, errors.New("SHIPPING_CARRIER_RATES_URL is required")
	}
	if cfg.Shipping.SyntheticMaxWeightKg <= 0 {
		return nil, errors.New("SHIPPING_SYNTHETIC_MAX_WEIGHT_KG must be positive")
	}
	if len(cfg.Shipping.HomeCountry) != 3 {
		return nil, fmt.Errorf("SHIPPING_HOME_COUNTRY must be an ISO alpha-3 code, got %q", cfg.Shipping.HomeCountry)
	}
	if cfg.Carrier.MaxAttempts < 1 {
		cfg.Carrier.MaxAttempts = 1
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs in local development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "development")
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
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	d, err := time.ParseDuration(valueOrDefault(value, fallback))
	if err != nil || d < 0 {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
