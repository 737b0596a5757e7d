package server

import (
	"log/slog"
	"net"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the gRPC health service name reported next to the overall "" status.
const ServiceName = "docassist.Assistant"

// Health runs the gRPC health service and tracks readiness for /healthz.
type Health struct {
	grpc    *grpc.Server
	hs      *health.Server
	serving atomic.Bool
	logger  *slog.Logger
}

func NewHealth(logger *slog.Logger) *Health {
	if logger == nil {
		logger = slog.Default()
	}
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	// Reflection for grpcurl
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	h := &Health{grpc: srv, hs: hs, logger: logger}
	h.serving.Store(true)
	return h
}

func (h *Health) Serving() bool { return h.serving.Load() }

// Serve blocks until Stop is called.
func (h *Health) Serve(lis net.Listener) error {
	h.logger.Info("grpc health listening", "addr", lis.Addr().String())
	return h.grpc.Serve(lis)
}

// Drain flips every service to NOT_SERVING while the listener stays up.
func (h *Health) Drain() {
	h.serving.Store(false)
	h.hs.Shutdown()
	h.logger.Info("health set to NOT_SERVING")
}

func (h *Health) Stop() {
	h.grpc.GracefulStop()
}
