package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nulzo/care-assist/internal/ai"
	_ "github.com/nulzo/care-assist/internal/ai/anthropic"
	_ "github.com/nulzo/care-assist/internal/ai/groq"
	_ "github.com/nulzo/care-assist/internal/ai/openai"
	"github.com/nulzo/care-assist/internal/analytics"
	"github.com/nulzo/care-assist/internal/config"
	"github.com/nulzo/care-assist/internal/features/alttext"
	"github.com/nulzo/care-assist/internal/features/seochat"
	"github.com/nulzo/care-assist/internal/metrics"
	"github.com/nulzo/care-assist/internal/settings"
	"github.com/nulzo/care-assist/internal/store"
	"github.com/nulzo/care-assist/internal/store/cache"
	"github.com/nulzo/care-assist/internal/store/sqlite"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app holds the wired services shared by serve and the one-shot commands.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	repo      store.Repository
	settings  settings.Service
	analytics analytics.Service
	ingestor  analytics.Ingestor
	metrics   *metrics.Metrics
	altText   *alttext.Generator
	chat      *seochat.Assistant
	redis     *redis.Client
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	repo, err := sqlite.NewSQLiteStorage(logger, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		repo:      repo,
		settings:  settings.NewService(logger, repo, cfg.SiteDefaults()),
		analytics: analytics.NewService(repo),
		ingestor:  analytics.NewIngestor(logger, repo),
		metrics:   metrics.Global(),
	}
	a.ingestor.Start(ctx)

	svc := ai.NewService(logger, a.settings, cfg.ProviderSettings(),
		ai.WithObserver(a.metrics),
		ai.WithRecorder(a.ingestor),
		ai.WithRecorder(a.metrics),
	)

	a.altText = alttext.New(svc, a.newCache(ctx), cfg.Cache.TTL, logger)
	a.chat = seochat.New(svc, logger)
	return a, nil
}

// newCache prefers redis when enabled and reachable, otherwise an in-process cache.
func (a *app) newCache(ctx context.Context) cache.CacheService {
	if !a.cfg.Redis.Enabled {
		return cache.NewMemoryCache()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		a.logger.Warn("Redis unavailable, using in-memory cache", zap.String("addr", a.cfg.Redis.Addr), zap.Error(err))
		_ = client.Close()
		return cache.NewMemoryCache()
	}

	a.redis = client
	a.logger.Info("Using redis cache", zap.String("addr", a.cfg.Redis.Addr))
	return cache.NewRedisCache(client, a.cfg.Cache.Prefix)
}

// Close flushes pending generation logs and releases connections.
func (a *app) Close() {
	a.ingestor.Stop()
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if err := a.repo.Close(); err != nil {
		a.logger.Warn("Failed to close database", zap.Error(err))
	}
}
