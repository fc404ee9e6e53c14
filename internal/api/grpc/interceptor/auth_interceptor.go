package interceptor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"parkease-backend/internal/config"
	"parkease-backend/internal/logger"
	"parkease-backend/internal/security"
)

type AuthInterceptor struct {
	identities security.IdentityProvider
}

func NewAuthInterceptor(identities security.IdentityProvider) *AuthInterceptor {
	return &AuthInterceptor{identities: identities}
}

// Unary returns a server interceptor function to authenticate unary RPCs.
// The resolved identity travels in the context, never in client-writable
// metadata.
func (i *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		level := config.GetSecurityLevel(info.FullMethod)

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			return handler(ctx, req)
		}

		credential, err := i.extractCredential(ctx)
		if err != nil {
			return nil, err
		}

		id, err := i.identities.Authenticate(ctx, credential)
		if err != nil {
			logger.WarnContext(ctx, "Authentication failed", "method", info.FullMethod, "error", err)
			return nil, status.Error(codes.Unauthenticated, "invalid credential")
		}

		ctx = security.WithIdentity(ctx, id)
		ctx = logger.WithUserID(ctx, id.UserID)
		return handler(ctx, req)
	}
}

func (i *AuthInterceptor) extractCredential(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "metadata is not provided")
	}

	authHeader := md.Get("authorization")
	if len(authHeader) == 0 {
		return "", status.Error(codes.Unauthenticated, "authorization token is not provided")
	}

	credential := security.BearerToken(authHeader[0])
	if credential == "" {
		return "", status.Error(codes.Unauthenticated, "authorization must use the Bearer scheme")
	}
	return credential, nil
}

// Logging tags the call with a request id and records method, code and
// latency for every unary call.
func Logging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get("x-request-id"); len(ids) > 0 {
				requestID = ids[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = logger.WithRequestID(ctx, requestID)

		resp, err := handler(ctx, req)
		logger.InfoContext(ctx, "gRPC request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
