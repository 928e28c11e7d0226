package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/simplehttp/simplehttp/internal/cache"
	"github.com/simplehttp/simplehttp/internal/config"
	"github.com/simplehttp/simplehttp/internal/handler"
	"github.com/simplehttp/simplehttp/internal/metrics"
	"github.com/simplehttp/simplehttp/internal/middleware"
	"github.com/simplehttp/simplehttp/internal/repository"
	"github.com/simplehttp/simplehttp/web"
)

// app holds the long-lived dependencies shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    repository.Store
	cache    *cache.Cache // nil without REDIS_URL
	recorder metrics.Recorder
	gatherer prometheus.Gatherer // nil when metrics are disabled

	closeOnce sync.Once
}

func storeOptions(cfg *config.Config) repository.Options {
	return repository.Options{
		Driver:      cfg.DatabaseDriver,
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		Limits: repository.Limits{
			QueryTimeout: cfg.QueryTimeout,
			MaxRows:      cfg.MaxRows,
		},
	}
}

// openStore connects to the configured relational store.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	store, err := repository.Open(ctx, storeOptions(cfg))
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("driver", cfg.DatabaseDriver),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return nil, fmt.Errorf("connect to database: %s", sanitizeError(err, cfg.DatabaseURL))
	}
	logger.Info("connected to database", slog.String("driver", cfg.DatabaseDriver))
	return store, nil
}

// newApp connects the store and, when configured, Redis.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		recorder: metrics.NewNoop(),
	}

	if cfg.RedisURL != "" {
		cacheClient, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			_ = store.Close()
			return nil, fmt.Errorf("connect to redis: %s", sanitizeError(err, cfg.RedisURL))
		}
		a.cache = cacheClient
		logger.Info("connected to Redis")
	} else {
		logger.Info("REDIS_URL not set, rate limiting disabled")
	}

	if cfg.MetricsEnabled {
		prom := metrics.NewPrometheus()
		a.recorder = prom
		a.gatherer = prom.Gatherer()
	}

	return a, nil
}

// routerDeps builds the handlers wired into the router.
func (a *app) routerDeps() routerDeps {
	deps := routerDeps{
		handler:  handler.New(web.Static(), a.logger),
		users:    handler.NewUsersHandler(a.store, a.logger, a.recorder),
		example:  handler.NewExampleHandler(),
		recorder: a.recorder,
		cfg:      a.cfg,
		logger:   a.logger,
	}

	if a.cache != nil {
		deps.health = handler.NewHealthHandler(a.store, a.cache)
		deps.limiter = a.cache
	} else {
		deps.health = handler.NewHealthHandler(a.store, nil)
	}

	if a.gatherer != nil {
		deps.metrics = handler.NewMetricsHandler(a.gatherer, a.logger)
	}

	return deps
}

func (a *app) router() http.Handler {
	return setupRouter(a.routerDeps())
}

// close releases the cache and the store, in that order. Only the first call
// has an effect.
func (a *app) close() {
	a.closeOnce.Do(func() {
		if a.cache != nil {
			if err := a.cache.Close(); err != nil {
				a.logger.Error("failed to close Redis client", "error", err)
			}
		}
		if err := a.store.Close(); err != nil {
			a.logger.Error("failed to close database", "error", err)
		}
	})
}

// The Redis cache is the production rate limiter.
var _ middleware.IPRateLimiter = (*cache.Cache)(nil)
