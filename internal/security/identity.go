package security

import (
	"context"
	"fmt"
	"strings"

	"parkease-backend/internal/config"
	"parkease-backend/internal/domain"
	"parkease-backend/internal/logger"
)

// IdentityProvider turns the credential presented on a request into the
// caller's identity. A missing or unrecognised credential is always
// domain.ErrUnauthenticated; there is no fallback identity.
type IdentityProvider interface {
	Authenticate(ctx context.Context, credential string) (domain.Identity, error)
}

// TokenIdentityProvider reads identity and role from a signed access token.
type TokenIdentityProvider struct {
	tokens TokenManager
}

func NewTokenIdentityProvider(tokens TokenManager) *TokenIdentityProvider {
	return &TokenIdentityProvider{tokens: tokens}
}

func (p *TokenIdentityProvider) Authenticate(ctx context.Context, credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing credential", domain.ErrUnauthenticated)
	}
	claims, err := p.tokens.ValidateToken(credential)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if claims.Type != TokenTypeAccess {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, ErrWrongTokenType)
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	return domain.Identity{UserID: claims.UserID, Role: role}, nil
}

// StaticIdentityProvider maps fixed credentials to identities. It exists
// for local development and tests.
type StaticIdentityProvider struct {
	identities map[string]domain.Identity
}

func NewStaticIdentityProvider(identities map[string]domain.Identity) *StaticIdentityProvider {
	copied := make(map[string]domain.Identity, len(identities))
	for k, v := range identities {
		copied[k] = v
	}
	return &StaticIdentityProvider{identities: copied}
}

func (p *StaticIdentityProvider) Authenticate(ctx context.Context, credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing credential", domain.ErrUnauthenticated)
	}
	id, ok := p.identities[credential]
	if !ok {
		return domain.Identity{}, fmt.Errorf("%w: unknown credential", domain.ErrUnauthenticated)
	}
	return id, nil
}

// NewIdentityProvider builds the provider named by cfg.Auth.Provider.
func NewIdentityProvider(cfg *config.Config) (IdentityProvider, error) {
	switch cfg.Auth.Provider {
	case config.AuthProviderToken:
		return NewTokenIdentityProvider(NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL())), nil
	case config.AuthProviderStatic:
		if cfg.Server.IsProduction() {
			return nil, fmt.Errorf("static identity provider is not allowed in %s", cfg.Server.Environment)
		}
		identities := make(map[string]domain.Identity, len(cfg.Auth.StaticUsers))
		for _, u := range cfg.Auth.StaticUsers {
			role, err := domain.ParseRole(u.Role)
			if err != nil {
				return nil, fmt.Errorf("static user %s: %w", u.UserID, err)
			}
			identities[u.Credential] = domain.Identity{UserID: u.UserID, Role: role}
		}
		logger.Warn("Using static identity provider", "users", len(identities))
		return NewStaticIdentityProvider(identities), nil
	}
	return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller attached by the transport's auth
// layer. ok is false on public routes called without a credential.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}
