package server

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServer is a gRPC server carrying only the standard health service,
// for orchestrators that probe over gRPC.
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

func NewHealthServer(logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	g := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(g, hs)
	// Set the service as serving (empty string means overall server health)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(g)
	return &HealthServer{grpc: g, health: hs, logger: logger}
}

func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Info("server.grpc_health.listening", "addr", lis.Addr().String())
	return h.grpc.Serve(lis)
}

// Stop flips the status to NOT_SERVING and drains in-flight probes.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
