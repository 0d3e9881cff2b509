package grpc

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported by the health service next to the
// overall "" entry.
const ServiceName = "room.ListingService"

// Check probes one dependency. A nil error means it is usable.
type Check func(ctx context.Context) error

// HealthReporter runs the dependency checks and publishes the result on the
// gRPC health service. Only the relational store is critical; the others are
// logged.
type HealthReporter struct {
	server   *health.Server
	critical map[string]Check
	optional map[string]Check
	logger   *logger.Logger
}

func NewHealthReporter(critical, optional map[string]Check, log *logger.Logger) *HealthReporter {
	return &HealthReporter{
		server:   health.NewServer(),
		critical: critical,
		optional: optional,
		logger:   log.Named("HealthReporter"),
	}
}

// Server exposes the underlying health server.
func (h *HealthReporter) Server() healthpb.HealthServer {
	return h.server
}

// Probe runs every check once and updates the serving status.
func (h *HealthReporter) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, check := range h.critical {
		if err := check(ctx); err != nil {
			h.logger.Error("Critical dependency unhealthy", zap.String("dependency", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	for name, check := range h.optional {
		if err := check(ctx); err != nil {
			h.logger.Warn("Optional dependency unhealthy", zap.String("dependency", name), zap.Error(err))
		}
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run probes immediately and then every interval until ctx is done.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		probeCtx, cancel := context.WithTimeout(ctx, interval/2)
		h.Probe(probeCtx)
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
