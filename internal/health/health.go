// Package health exposes the pipeline's liveness over gRPC using the
// standard health-checking protocol bundled with google.golang.org/grpc
// and reflection, deliberately without any hand-authored .proto service:
// this surface exists only to answer "is the consumer making progress",
// which the stock health service already expresses.
package health

import (
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"tickstream/internal/logging"
)

// ServiceName is the health-checked service name reported over the
// health protocol.
const ServiceName = "tickstream.Pipeline"

// StallChecker reports whether the pipeline consumer has stalled past a
// threshold. *pipeline.Pipeline satisfies this.
type StallChecker interface {
	Stalled(threshold time.Duration) bool
}

// Server wraps a gRPC server exposing health and reflection, and a
// background loop that flips serving status based on pipeline
// progress.
type Server struct {
	grpcSrv *grpc.Server
	healthSrv *health.Server
	checker StallChecker
	threshold time.Duration
	log     logging.Logger
}

// New builds a Server. Nothing is listening until Serve is called.
func New(checker StallChecker, threshold time.Duration, log logging.Logger) *Server {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)

	return &Server{
		grpcSrv:   grpcSrv,
		healthSrv: healthSrv,
		checker:   checker,
		threshold: threshold,
		log:       log,
	}
}

// Serve listens on addr and blocks, updating serving status once per
// tick until the listener errors or the process exits. Callers
// typically run this in its own goroutine.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	go s.watch()

	s.log.Infof("health: serving on %s", addr)
	return s.grpcSrv.Serve(lis)
}

func (s *Server) watch() {
	interval := s.threshold / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		status := healthpb.HealthCheckResponse_SERVING
		if s.checker.Stalled(s.threshold) {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		s.healthSrv.SetServingStatus(ServiceName, status)
	}
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop() {
	s.grpcSrv.GracefulStop()
}
