package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/noah-isme/shiprate/internal/health"
	"github.com/noah-isme/shiprate/internal/obs"
	"github.com/noah-isme/shiprate/internal/ratelimit"
	"github.com/noah-isme/shiprate/internal/resilience"
	"github.com/noah-isme/shiprate/internal/security"
	"github.com/noah-isme/shiprate/internal/shipping"
)

// NewRouter mounts the rate API, health and metrics endpoints.
func NewRouter(deps *Dependencies) http.Handler {
	cfg := deps.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if cfg.Obs.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if cfg.Obs.MetricsEnabled {
		metrics := obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), deps.Registry)
		r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: deps.Logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: !cfg.IsDevelopment()}.Middleware)
	r.Use(security.CORS(cfg.CORSAllowedOrigins))

	healthHandler := health.Handler{Probes: probes(deps)}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	if cfg.Obs.MetricsEnabled {
		r.Handle("/metrics", obs.MetricsHandler(deps.Gatherer()))
	}

	rates := shipping.NewHandler(shipping.HandlerConfig{Service: deps.Service, Validator: deps.Validator})
	limiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: deps.Redis, Prefix: "shiprate:ratelimit:"},
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP("rates"),
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
		OnError: func(r *http.Request, err error) {
			deps.Logger.Warn().Err(err).Str("path", r.URL.Path).Msg("rate_limit_unavailable")
		},
	}

	r.Route("/api/v1/rates", func(v chi.Router) {
		v.Get("/slabs", rates.Slabs)
		v.Group(func(post chi.Router) {
			post.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
			post.Use(limiter.Middleware)
			post.Post("/calculate", rates.Calculate)
			post.Post("/charge-weight", rates.ChargeWeight)
		})
	})
	return r
}

func probes(deps *Dependencies) []health.Probe {
	var out []health.Probe
	if deps.Redis != nil {
		out = append(out, health.Probe{
			Name:  "redis",
			Check: func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() },
		})
	}
	if deps.Breaker != nil {
		out = append(out, health.Probe{
			Name: "carrier",
			Check: func(context.Context) error {
				if state := deps.Breaker.State(); state != resilience.Closed {
					return fmt.Errorf("circuit %s", state)
				}
				return nil
			},
			Informational: true,
		})
	}
	return out
}
