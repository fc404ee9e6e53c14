package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"parkease-backend/internal/api/grpc/interceptor"
	"parkease-backend/internal/security"
)

// Server bundles the gRPC server with its health service so the caller can
// flip the serving status during shutdown.
type Server struct {
	*grpc.Server
	Health *health.Server
}

func NewServer(handler BookingServiceServer, identities security.IdentityProvider) *Server {
	authInterceptor := interceptor.NewAuthInterceptor(identities)
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptor.Logging(), authInterceptor.Unary()),
	)
	srv.RegisterService(&BookingServiceDesc, handler)

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthSrv)
	healthSrv.SetServingStatus(BookingServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(srv)
	return &Server{Server: srv, Health: healthSrv}
}

// Shutdown marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) Shutdown() {
	s.Health.Shutdown()
	s.GracefulStop()
}
