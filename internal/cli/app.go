package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/open-builders/secret-santa-bot/internal/common/logger"
	"github.com/open-builders/secret-santa-bot/internal/config"
	"github.com/open-builders/secret-santa-bot/internal/domain/participant"
	"github.com/open-builders/secret-santa-bot/internal/metrics"
	platformredis "github.com/open-builders/secret-santa-bot/internal/platform/redis"
	"github.com/open-builders/secret-santa-bot/internal/repository/file"
	redisrepo "github.com/open-builders/secret-santa-bot/internal/repository/redis"
	"github.com/open-builders/secret-santa-bot/internal/service/distribution"
	"github.com/open-builders/secret-santa-bot/internal/service/notifications"
	"github.com/open-builders/secret-santa-bot/internal/service/telegram"
)

const (
	redisPrefix  = "santa"
	runLockKey   = "santa:lock:distribution"
	metricsSpace = "santa"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	store    participant.Repository
	redis    *platformredis.Client
	telegram *telegram.Client
	engine   *distribution.Engine
	metrics  *metrics.Collector
	registry *prometheus.Registry
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.NewPrometheus(a.registry, metricsSpace)

	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		redisLogger := logger.Component("redis")
		rc, err := platformredis.Open(ctx, platformredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Logger:   &redisLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = rc
		a.store = redisrepo.NewStore(rc.Client, redisPrefix, logger.Component("redis_store"))
	default:
		fs, err := file.NewStore(cfg.Store.DataDir, logger.Component("file_store"))
		if err != nil {
			return nil, fmt.Errorf("open data dir: %w", err)
		}
		a.store = fs
	}

	a.telegram = telegram.NewClient(cfg.Telegram.Token,
		telegram.WithBaseURL(cfg.Telegram.APIURL),
		telegram.WithLogger(logger.Component("telegram")),
	)
	deliverer := notifications.NewDeliverer(a.telegram,
		notifications.PolicyFromConfig(cfg.Delivery),
		notifications.WithLogger(logger.Component("delivery")),
	)

	engineOpts := []distribution.Option{
		distribution.WithMetrics(a.metrics),
		distribution.WithLogger(logger.Component("distribution")),
	}
	if a.redis != nil {
		engineOpts = append(engineOpts, distribution.WithLocker(a.redis.RunLock(runLockKey, cfg.Redis.LockTTL)))
	}
	a.engine = distribution.NewEngine(a.store, deliverer, engineOpts...)

	return a, nil
}

// ready backs the /ready probe.
func (a *app) ready(ctx context.Context) error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Healthy(ctx)
}

func (a *app) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
