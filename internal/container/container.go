package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"go-content-moderator/internal/cache"
	"go-content-moderator/internal/config"
	"go-content-moderator/internal/detector"
	"go-content-moderator/internal/dispatch"
	"go-content-moderator/internal/factory"
	"go-content-moderator/internal/logger"
	"go-content-moderator/internal/moderation"
	"go-content-moderator/internal/notify"
	"go-content-moderator/internal/observer"
	"go-content-moderator/internal/repository"
	"go-content-moderator/internal/service"
	"go-content-moderator/internal/storage"
	"go-content-moderator/internal/transport"
	"go-content-moderator/internal/trigger"
	"go-content-moderator/internal/worker"
)

// Container holds all application dependencies
type Container struct {
	config     *config.Config
	detector   detector.Detector
	store      storage.ObjectStore
	notifier   notify.Notifier
	dispatcher *dispatch.Dispatcher
	metrics    *observer.MetricsObserver
	service    service.ModerationService
	handler    http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context) (*Container, error) {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Build dependency graph
	det, err := factory.CreateDetector(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := factory.CreateObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	notifier, err := factory.CreateNotifier(ctx, cfg)
	if err != nil {
		return nil, err
	}

	engine := moderationEngine(cfg)
	dispatcher := dispatch.NewDispatcher(store, notifier, cfg.QuarantineBucket)

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	contentRepo := repository.NewHTTPContentRepository(storage.NewHTTPFetcher(cfg.MaxRequestBodySize))

	svc := service.NewModerationService(
		det,
		engine,
		contentRepo,
		store,
		dispatcher,
		verdictCache(ctx, cfg),
		events,
		service.VideoOptions{
			TargetFrameRate: cfg.TargetFrameRate,
			MaxDuration:     cfg.MaxVideoDuration,
			FFmpegPath:      cfg.FFmpegPath,
			FFprobePath:     cfg.FFprobePath,
		},
	)

	handler := transport.NewHandler(svc, metrics, cfg)

	return &Container{
		config:     cfg,
		detector:   det,
		store:      store,
		notifier:   notifier,
		dispatcher: dispatcher,
		metrics:    metrics,
		service:    svc,
		handler:    handler,
	}, nil
}

// moderationEngine builds the decision engine from the configured policy.
func moderationEngine(cfg *config.Config) *moderation.Engine {
	return moderation.NewEngine(moderation.Policy{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		ForbiddenCategories: cfg.ForbiddenCategories,
		Labels:              cfg.CategoryLabels,
	})
}

// verdictCache wires the optional Redis cache; an unreachable Redis is a
// warning, not a startup failure.
func verdictCache(ctx context.Context, cfg *config.Config) *cache.VerdictCache {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).WithField("address", cfg.RedisAddr).Warn("Redis unreachable, verdict cache disabled")
		return nil
	}
	return cache.NewVerdictCache(rdb, cfg.CacheTTL, "moderation")
}

// Consumer builds the event-triggered surface on demand.
func (c *Container) Consumer(ctx context.Context) (*trigger.Consumer, error) {
	if c.config.QueueURL == "" {
		return nil, fmt.Errorf("SQS_QUEUE_URL is required for the event consumer")
	}
	client, err := trigger.NewSQSClient(ctx, c.config.AWSRegion)
	if err != nil {
		return nil, err
	}
	pool := worker.NewPool(c.config.WorkerCount)
	return trigger.NewConsumer(client, c.config.QueueURL, c.service, pool, 1, c.config.AnalysisTimeout), nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases held resources
func (c *Container) Close() error {
	return c.detector.Close()
}
