package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/repository/cache"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/repository/postgres"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/repository/sqlite"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/metrics"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// app holds the adapters shared by the subcommands. Optional adapters stay
// nil interfaces when they are not configured.
type app struct {
	cfg     *config.Config
	logger  *logger.Logger
	metrics *metrics.MetricsManager

	listings domain.ListingRepository
	photos   domain.PhotoRepository
	storage  domain.ObjectStorage
	journal  domain.UploadJournal
	cache    domain.ListingCache
	events   domain.EventPublisher
	notifier domain.Notifier

	// pingStore reports whether the relational store answers.
	pingStore func(ctx context.Context) error
	// migrate brings the relational schema up to date.
	migrate func(ctx context.Context) error

	redisPing func(ctx context.Context) error
	mongoPing func(ctx context.Context) error

	closers []func()
}

// openStore connects the relational store selected by DB_DRIVER. It is the
// only adapter every subcommand needs.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.MetricsManager) (*app, error) {
	a := &app{cfg: cfg, logger: log, metrics: m}

	switch cfg.DBDriver {
	case config.DriverPostgres:
		connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		pool, err := postgres.NewClient(connCtx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.listings = postgres.NewListingRepository(pool, log)
		a.photos = postgres.NewPhotoRepository(pool, log)
		a.pingStore = pool.Ping
		a.migrate = func(ctx context.Context) error {
			_, err := postgres.Migrate(ctx, pool, log)
			return err
		}
		log.Info("Connected to PostgreSQL")
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		a.listings = store
		a.photos = store
		a.pingStore = store.Ping
		a.migrate = store.Migrate
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return a, nil
}

// connectStorage wires the object bucket.
func (a *app) connectStorage(ctx context.Context) error {
	storage, err := s3.NewObjectStorage(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	a.storage = storage
	return nil
}

// connectJournal wires the Mongo upload journal when MONGO_URI is set.
func (a *app) connectJournal(ctx context.Context) error {
	if a.cfg.MongoURI == "" {
		a.logger.Warn("MONGO_URI is not set, upload journal and orphan sweeping are disabled")
		return nil
	}
	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	client, err := mongodb.Connect(connCtx, a.cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.closers = append(a.closers, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			a.logger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	})
	a.mongoPing = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	journal, err := mongodb.NewUploadJournal(client.Database(a.cfg.MongoDatabase), a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize upload journal: %w", err)
	}
	a.journal = journal
	a.logger.Info("Connected to MongoDB", zap.String("database", a.cfg.MongoDatabase))
	return nil
}

// connectOptional wires the cache, the event publisher and the mailer. Each
// one is best-effort: a failure is logged and the service runs without it.
func (a *app) connectOptional(ctx context.Context) {
	if a.cfg.RedisAddr != "" {
		connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		c, err := cache.NewListingCache(connCtx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB, a.cfg.CacheTTL, a.logger)
		cancel()
		if err != nil {
			a.logger.Warn("Redis unavailable, running without the listing cache", zap.Error(err))
		} else {
			a.cache = c
			a.redisPing = c.Ping
			a.closers = append(a.closers, func() { _ = c.Close() })
		}
	}

	if a.cfg.NATSURL != "" {
		p, err := nats.NewPublisher(a.cfg.NATSURL, a.logger, a.cfg.ServiceName)
		if err != nil {
			a.logger.Warn("NATS unavailable, listing events will not be published", zap.Error(err))
		} else {
			a.events = p
			a.closers = append(a.closers, p.Close)
		}
	}

	if a.cfg.SMTPHost != "" {
		m, err := mailer.NewSMTPMailer(mailer.Config{
			Host:     a.cfg.SMTPHost,
			Port:     a.cfg.SMTPPort,
			Username: a.cfg.SMTPUsername,
			Password: a.cfg.SMTPPassword,
			From:     a.cfg.SMTPFrom,
		}, a.logger)
		if err != nil {
			a.logger.Warn("SMTP mailer disabled", zap.Error(err))
		} else {
			a.notifier = m
		}
	}
}

func (a *app) catalogUsecase() *usecase.CatalogUsecase {
	return usecase.NewCatalogUsecase(a.listings, a.cache, a.metrics, a.logger)
}

func (a *app) listingUsecase() *usecase.ListingUsecase {
	media := usecase.NewMediaPipeline(a.storage, a.journal, a.metrics, a.logger)
	opts := []usecase.Option{usecase.WithMetrics(a.metrics)}
	if a.cache != nil {
		opts = append(opts, usecase.WithCache(a.cache))
	}
	if a.events != nil {
		opts = append(opts, usecase.WithPublisher(a.events))
	}
	if a.notifier != nil {
		opts = append(opts, usecase.WithNotifier(a.notifier))
	}
	return usecase.NewListingUsecase(a.listings, a.photos, media, a.logger, opts...)
}

func (a *app) orphanSweeper(grace time.Duration) *usecase.OrphanSweeper {
	return usecase.NewOrphanSweeper(a.journal, a.photos, a.storage, grace, a.metrics, a.logger)
}

// Close releases the adapters in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
