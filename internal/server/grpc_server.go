package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/approach/internal/auth"
	"github.com/oggyb/approach/internal/config"
)

// NewGRPCServer builds a gRPC server with auth and logging interceptors, the
// standard health service, and every provided service registered.
func NewGRPCServer(p auth.Provider, log *slog.Logger, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			UnaryLoggingInterceptor(log),
			UnaryAuthInterceptor(p),
		),
		grpc.ChainStreamInterceptor(
			StreamAuthInterceptor(p),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// shutdownGrace bounds how long in-flight RPCs get to finish. Change streams
// never end on their own, so GracefulStop alone would wait on them forever.
const shutdownGrace = 5 * time.Second

// StartGRPCServer listens on the configured address and serves until ctx is
// done.
func StartGRPCServer(ctx context.Context, cfg *config.Config, grpcServer *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return ServeGRPC(ctx, lis, grpcServer, shutdownGrace)
}

// ServeGRPC serves on lis until ctx is done, then stops gracefully. RPCs still
// open after grace, such as change subscriptions, are cut off by a hard stop.
func ServeGRPC(ctx context.Context, lis net.Listener, grpcServer *grpc.Server, grace time.Duration) error {
	go func() {
		<-ctx.Done()

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case <-stopped:
		case <-timer.C:
			grpcServer.Stop()
		}
	}()

	return grpcServer.Serve(lis)
}
