package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/simplehttp/simplehttp/internal/config"
	"github.com/simplehttp/simplehttp/internal/handler"
	"github.com/simplehttp/simplehttp/internal/metrics"
	"github.com/simplehttp/simplehttp/internal/middleware"
)

// routerDeps lists everything setupRouter wires. Optional parts are nil.
type routerDeps struct {
	handler  *handler.Handler
	health   *handler.HealthHandler
	users    *handler.UsersHandler
	example  *handler.ExampleHandler
	metrics  *handler.MetricsHandler
	recorder metrics.Recorder
	limiter  middleware.IPRateLimiter
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	recorder := d.recorder
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.IsDevelopment = d.cfg.IsDevelopment()
	securityCfg.MaxRequestBodySize = d.cfg.MaxRequestBodySize

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Metrics(recorder))
	r.Use(middleware.Security(securityCfg))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(securityCfg.MaxRequestBodySize))

	rateLimit := middleware.RateLimitIP(middleware.RateLimitConfig{
		Logger:  d.logger,
		Limiter: d.limiter,
		Metrics: recorder,
		Enabled: d.cfg.RateLimitEnabled,
		RPS:     d.cfg.RateLimitRPS,
		Burst:   d.cfg.RateLimitBurst,
	})

	// Operations
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	if d.metrics != nil {
		r.Get("/metrics", d.metrics.Metrics)
	}

	// Browser client
	r.Get("/", d.handler.Index)
	r.Get("/script.js", d.handler.Index)

	// Plain-text diagnostics
	r.Get("/echo", d.handler.Echo)
	r.Get("/time", d.handler.Time)

	// JSON API. Handlers check methods themselves so every method gets the envelope.
	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit)
		r.Handle("/db/users", d.users)
		r.Handle("/example", d.example)
	})
	r.With(rateLimit).Handle("/api_example.php", d.example)

	// 404 and 405 handlers
	r.NotFound(d.handler.NotFound)
	r.MethodNotAllowed(d.handler.MethodNotAllowed)

	return r
}
