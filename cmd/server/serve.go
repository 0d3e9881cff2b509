package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	grpcAdapter "github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/grpc"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/rest"
	restmw "github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/rest/middleware"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/tracer"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/tasks"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	healthProbeInterval = 15 * time.Second
	shutdownTimeout     = 10 * time.Second
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the gRPC health endpoint and the maintenance worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Logger and configuration
	cfg, appLogger, err := loadConfig()
	if err != nil {
		appLogger.Error("Startup aborted", zap.Error(err))
		return err
	}
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info("Starting service", zap.String("service", cfg.ServiceName), zap.String("version", version))

	// 2. Tracing and metrics
	tp := tracer.InitTracer(cfg.ServiceName, cfg.OTExporterOTLPEndpoint, appLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()
	metricsManager := metrics.NewMetricsManager(cfg.ServiceName)

	// 3. Relational store, applying pending migrations
	a, err := openStore(ctx, cfg, appLogger, metricsManager)
	if err != nil {
		appLogger.Error("Failed to open the listing store", zap.Error(err))
		return err
	}
	defer a.Close()
	if err := a.migrate(ctx); err != nil {
		appLogger.Error("Failed to migrate the listing store", zap.Error(err))
		return fmt.Errorf("migrate: %w", err)
	}

	// 4. Object storage, upload journal and optional adapters
	if err := a.connectStorage(ctx); err != nil {
		appLogger.Error("Failed to initialize object storage", zap.Error(err))
		return err
	}
	if err := a.connectJournal(ctx); err != nil {
		appLogger.Error("Failed to initialize the upload journal", zap.Error(err))
		return err
	}
	a.connectOptional(ctx)

	// 5. Usecases and HTTP API
	handler := rest.NewListingHandler(a.catalogUsecase(), a.listingUsecase(), cfg.MaxUploadBytes(), appLogger)
	var limiter *restmw.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = restmw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, appLogger)
		go limiter.Run(ctx)
	}
	router := rest.NewRouter(handler, rest.RouterConfig{
		JWTSecret:          cfg.JWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	}, appLogger, metricsManager)
	httpServer := rest.NewServer(cfg.HTTPPort, router)

	serverErrors := make(chan error, 3)

	go func() {
		appLogger.Info("HTTP server starting", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("http server: %w", err)
		}
	}()

	// 6. gRPC health endpoint
	critical := map[string]grpcAdapter.Check{"store": a.pingStore}
	optional := map[string]grpcAdapter.Check{}
	if a.redisPing != nil {
		optional["redis"] = a.redisPing
	}
	if a.mongoPing != nil {
		optional["mongo"] = a.mongoPing
	}
	reporter := grpcAdapter.NewHealthReporter(critical, optional, appLogger)
	go reporter.Run(ctx, healthProbeInterval)

	grpcServer, grpcCleanup := grpcAdapter.NewGRPCServer(appLogger, reporter)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		appLogger.Error("Failed to listen for gRPC", zap.String("port", cfg.GRPCPort), zap.Error(err))
		return err
	}
	go func() {
		appLogger.Info("gRPC server starting", zap.String("address", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			serverErrors <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	// 7. Prometheus metrics
	metricsServer := metrics.NewMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry)
	if metricsServer != nil {
		go func() {
			appLogger.Info("Prometheus metrics server starting", zap.String("address", metricsServer.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrors <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	// 8. Orphan sweep worker and schedule
	stopWorker := startMaintenance(a, appLogger, serverErrors)

	select {
	case <-ctx.Done():
		appLogger.Info("Shutdown signal received")
	case err := <-serverErrors:
		appLogger.Error("Server failed, shutting down", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown error", zap.Error(err))
	}
	grpcCleanup()
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}
	stopWorker()

	appLogger.Info("Service stopped")
	return nil
}

// startMaintenance runs the asynq worker and scheduler when Redis and the
// upload journal are both configured. The returned func stops them.
func startMaintenance(a *app, appLogger *logger.Logger, errs chan<- error) func() {
	if a.cfg.RedisAddr == "" || a.journal == nil {
		appLogger.Info("Orphan sweep worker not started: requires REDIS_ADDR and MONGO_URI")
		return func() {}
	}

	opt := tasks.RedisOpt(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	processor := tasks.NewTaskProcessor(a.orphanSweeper(a.cfg.OrphanGracePeriod), appLogger)
	worker := tasks.NewServer(opt, appLogger)
	if err := worker.Start(processor.Mux()); err != nil {
		errs <- fmt.Errorf("task worker: %w", err)
		return func() {}
	}

	scheduler, err := tasks.NewScheduler(opt, a.cfg.OrphanSweepCron, appLogger)
	if err != nil {
		appLogger.Error("Failed to schedule the orphan sweep", zap.Error(err))
	}
	if scheduler != nil {
		if err := scheduler.Start(); err != nil {
			appLogger.Error("Failed to start the task scheduler", zap.Error(err))
			scheduler = nil
		}
	}

	return func() {
		if scheduler != nil {
			scheduler.Shutdown()
		}
		worker.Shutdown()
	}
}
