package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/approach/internal/api"
	"github.com/oggyb/approach/internal/auth"
	svcErr "github.com/oggyb/approach/internal/errors"
	"github.com/oggyb/approach/internal/logger"
)

// AuthorizationKey is the metadata key carrying the bearer token.
const AuthorizationKey = "authorization"

// isPublic covers sign-up/sign-in style methods plus gRPC's own services
// (health, reflection).
func isPublic(fullMethod string) bool {
	return api.PublicMethods[fullMethod] || strings.HasPrefix(fullMethod, "/grpc.")
}

// UnaryAuthInterceptor installs the caller's session for every non-public method.
func UnaryAuthInterceptor(p auth.Provider) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if isPublic(info.FullMethod) {
			return handler(ctx, req)
		}
		ctx, err := authenticate(ctx, p)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor is UnaryAuthInterceptor for streams.
func StreamAuthInterceptor(p auth.Provider) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if isPublic(info.FullMethod) {
			return handler(srv, ss)
		}
		ctx, err := authenticate(ss.Context(), p)
		if err != nil {
			return svcErr.Map(err)
		}
		return handler(srv, &sessionStream{ServerStream: ss, ctx: ctx})
	}
}

func authenticate(ctx context.Context, p auth.Provider) (context.Context, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get(AuthorizationKey)
	if len(values) == 0 || values[0] == "" {
		return nil, svcErr.Auth(svcErr.AuthSessionRequired, nil)
	}
	sess, err := p.Authenticate(ctx, values[0])
	if err != nil {
		return nil, err
	}
	return auth.WithSession(ctx, sess), nil
}

type sessionStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *sessionStream) Context() context.Context { return s.ctx }

// UnaryLoggingInterceptor logs each call with its code and latency.
func UnaryLoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelInfo
		}
		log.Log(ctx, level, "grpc call", "method", info.FullMethod, "code", status.Code(err).String(), logger.Since(start))
		return resp, err
	}
}
