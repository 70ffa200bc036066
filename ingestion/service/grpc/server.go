package grpc

import (
	"log"
	"sync"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service names reported by the health server
const (
	IngestionService = "reqsync.Ingestion"
	RemoteService    = "reqsync.Remote"
)

// Server exposes local and remote health over the standard gRPC health protocol
type Server struct {
	health *health.Server
	logger *log.Logger

	mu         sync.Mutex
	lastRemote healthpb.HealthCheckResponse_ServingStatus
}

// NewServer creates a new health Server. The remote status stays UNKNOWN until the first probe.
func NewServer(l *log.Logger) *Server {
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus(IngestionService, healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus(RemoteService, healthpb.HealthCheckResponse_UNKNOWN)
	return &Server{health: h, logger: l, lastRemote: healthpb.HealthCheckResponse_UNKNOWN}
}

// Register adds the health service to a gRPC server
func (s *Server) Register(r grpclib.ServiceRegistrar) {
	healthpb.RegisterHealthServer(r, s.health)
}

// SetRemoteReachable records a health probe result; it is used as the reconciler's probe listener
func (s *Server) SetRemoteReachable(reachable bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if reachable {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.mu.Lock()
	changed := status != s.lastRemote
	s.lastRemote = status
	s.mu.Unlock()

	if changed {
		s.logger.Printf("gRPC Server: remote status is now %s", status)
	}
	s.health.SetServingStatus(RemoteService, status)
}

// Shutdown reports every service as NOT_SERVING ahead of GracefulStop
func (s *Server) Shutdown() {
	s.health.Shutdown()
}
