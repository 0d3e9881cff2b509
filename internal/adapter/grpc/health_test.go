package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthReporter_Probe(t *testing.T) {
	ctx := context.Background()
	var dbErr error
	reporter := NewHealthReporter(
		map[string]Check{"postgres": func(context.Context) error { return dbErr }},
		map[string]Check{"redis": func(context.Context) error { return errors.New("connection refused") }},
		logger.NewNop(),
	)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, reporter.Probe(ctx), "optional failures do not flip the status")
	resp, err := reporter.Server().Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	dbErr = errors.New("too many connections")
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, reporter.Probe(ctx))
	resp, err = reporter.Server().Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestNewGRPCServer_RegistersServices(t *testing.T) {
	reporter := NewHealthReporter(nil, nil, logger.NewNop())
	server, cleanup := NewGRPCServer(logger.NewNop(), reporter)
	defer cleanup()

	info := server.GetServiceInfo()
	assert.Contains(t, info, "grpc.health.v1.Health")
	assert.Contains(t, info, "grpc.reflection.v1.ServerReflection")
}
