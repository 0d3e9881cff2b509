package grpc

import (
	"github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/grpc/middleware"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer builds the gRPC server carrying the standard health service
// and reflection. The returned cleanup marks every service NOT_SERVING and
// stops the server gracefully.
func NewGRPCServer(appLogger *logger.Logger, reporter *HealthReporter) (*grpc.Server, func()) {
	server := grpc.NewServer(
		middleware.TracingOption(),
		grpc.ChainUnaryInterceptor(
			middleware.LoggingInterceptor(appLogger.Named("gRPC")),
		),
	)

	healthpb.RegisterHealthServer(server, reporter.server)
	reflection.Register(server)

	appLogger.Info("gRPC server configured with health and reflection services")

	cleanup := func() {
		appLogger.Info("Calling gRPC server's GracefulStop...")
		reporter.server.Shutdown()
		server.GracefulStop()
		appLogger.Info("gRPC server GracefulStop completed.")
	}
	return server, cleanup
}
