package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/security"
)

// callerFromContext returns the identity the auth interceptor attached.
func callerFromContext(ctx context.Context) (domain.Identity, error) {
	id, ok := security.IdentityFromContext(ctx)
	if !ok || id.UserID == "" {
		return domain.Identity{}, status.Error(codes.Unauthenticated, "caller identity is not provided")
	}
	return id, nil
}
