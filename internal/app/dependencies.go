package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/shiprate/internal/cache"
	"github.com/noah-isme/shiprate/internal/common"
	"github.com/noah-isme/shiprate/internal/config"
	"github.com/noah-isme/shiprate/internal/lock"
	"github.com/noah-isme/shiprate/internal/obs"
	"github.com/noah-isme/shiprate/internal/resilience"
	"github.com/noah-isme/shiprate/internal/shipping"
)

// Dependencies holds the long-lived clients shared by the HTTP server.
type Dependencies struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Redis     *redis.Client
	Breaker   *resilience.Breaker
	Service   *shipping.Service
	Validator *validator.Validate
	Registry  *prometheus.Registry
}

// Gatherer merges the service registry with the default one, which carries
// the runtime collectors and the circuit breaker metrics.
func (d *Dependencies) Gatherer() prometheus.Gatherer {
	return prometheus.Gatherers{d.Registry, prometheus.DefaultGatherer}
}

// Build wires the rate service from configuration. The returned close
// function releases the Redis connection pool.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, func(), error) {
	if cfg == nil {
		return nil, nil, errors.New("app: config is required")
	}
	deps := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Validator: common.NewValidator(),
		Registry:  prometheus.NewRegistry(),
	}
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, deps.Registry)

	closeFn := func() {}
	if cfg.RedisURL != "" {
		client, err := newRedis(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		deps.Redis = client
		closeFn = func() { _ = client.Close() }
	}

	deps.Breaker = resilience.NewBreaker(cfg.Carrier.BreakerMinRequests, cfg.Carrier.BreakerFailureRatio, cfg.Carrier.BreakerOpenFor).
		WithTarget("carrier").
		WithLogger(logger)
	client := resilience.HTTPClient{
		Client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Breaker:     deps.Breaker,
		BaseBackoff: cfg.Carrier.BaseBackoff,
		MaxAttempts: cfg.Carrier.MaxAttempts,
		Jitter:      0.2,
		Timeout:     cfg.Carrier.Timeout,
	}

	deps.Service = &shipping.Service{
		Carrier:     carrierFor(cfg, client, logger),
		Slabs:       slabSourceFor(cfg, deps.Redis, logger),
		HomeCountry: cfg.Shipping.HomeCountry,
		Synthetic: shipping.SyntheticCarrier{
			AccountID:   cfg.Shipping.SyntheticAccountID,
			Slug:        cfg.Shipping.SyntheticSlug,
			Description: cfg.Shipping.SyntheticDescription,
			ServiceType: cfg.Shipping.SyntheticServiceType,
			ServiceName: cfg.Shipping.SyntheticServiceName,
			Currency:    cfg.Shipping.Currency,
			MaxWeightKg: cfg.Shipping.SyntheticMaxWeightKg,
		},
		Resolver: shipping.Resolver{Logger: &deps.Logger},
		Logger:   &deps.Logger,
	}
	return deps, closeFn, nil
}

func newRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Warn().Err(err).Msg("redis_tracing_instrumentation_failed")
	}
	if cfg.Obs.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Warn().Err(err).Msg("redis_metrics_instrumentation_failed")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis_unreachable_at_startup")
	}
	return client, nil
}

func carrierFor(cfg *config.Config, client resilience.HTTPClient, logger zerolog.Logger) shipping.CarrierClient {
	if cfg.Shipping.CarrierRatesURL == "" {
		logger.Warn().Msg("carrier_mock_enabled")
		return shipping.MockCarrier{}
	}
	return shipping.HTTPCarrier{
		Endpoint: cfg.Shipping.CarrierRatesURL,
		APIKey:   cfg.Shipping.CarrierAPIKey,
		Client:   client,
	}
}

// slabSourceFor returns nil when no slab endpoint is configured, so the
// service prices from the built-in table. The slab endpoint gets its own
// breaker: a failing back office must not open the carrier circuit.
func slabSourceFor(cfg *config.Config, rdb *redis.Client, logger zerolog.Logger) shipping.SlabSource {
	if cfg.Shipping.RateSlabsURL == "" {
		return nil
	}
	var source shipping.SlabSource = shipping.HTTPSlabSource{
		Endpoint: cfg.Shipping.RateSlabsURL,
		APIKey:   cfg.Shipping.RateSlabsAPIKey,
		Client: resilience.HTTPClient{
			Client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker: resilience.NewBreaker(3, 0.5, cfg.Carrier.BreakerOpenFor).WithTarget("rate_slabs").WithLogger(logger),
			Timeout: cfg.Carrier.Timeout,
		},
	}
	if rdb != nil && cfg.Shipping.SlabCacheTTL > 0 {
		source = shipping.CachedSlabSource{
			Source: source,
			Cache:  cache.New(rdb, "shiprate:", cfg.Shipping.SlabCacheTTL),
			Key:    cache.KeySlabTable(cfg.Shipping.RateSlabsURL),
			Lock: lock.Locker{
				Client:       rdb,
				Prefix:       "shiprate:",
				RetryBackoff: 50 * time.Millisecond,
				Wait:         2 * time.Second,
			},
			Logger: &logger,
		}
	}
	return source
}
