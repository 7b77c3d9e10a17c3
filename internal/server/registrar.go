package server

import "google.golang.org/grpc"

// Registrar adds one service's handlers to a gRPC server. Each package under
// internal/service provides one.
type Registrar interface {
	Register(s *grpc.Server)
}
