package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/financing-service/internal/domain"
)

// Authentication outcomes. The HTTP boundary collapses the first three
// into one generic 401 response; internally they stay distinct.
var (
	ErrNoToken               = errors.New("no token supplied")
	ErrInvalidToken          = errors.New("invalid token")
	ErrTokenRevoked          = errors.New("token revoked")
	ErrForbidden             = errors.New("insufficient role")
	ErrRevocationUnavailable = errors.New("revocation registry unavailable")
)

// Authenticator validates presented tokens. The HTTP middleware and the
// realtime handshake are both thin adapters over Authenticate; any
// divergence between the two paths is a defect.
type Authenticator struct {
	tokens      *TokenManager
	revocations RevocationRegistry
}

// NewAuthenticator builds the authenticator.
func NewAuthenticator(tokens *TokenManager, revocations RevocationRegistry) *Authenticator {
	return &Authenticator{tokens: tokens, revocations: revocations}
}

// Authenticate checks, in order: token presence, signature and expiry,
// then revocation. When the revocation registry is unreachable it
// returns the parsed identity together with ErrRevocationUnavailable;
// the caller decides whether its path may fail open. State-changing
// paths must treat that error as a denial.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) (*domain.Identity, error) {
	if rawToken == "" {
		return nil, ErrNoToken
	}

	claims, err := a.tokens.Verify(rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	revoked, err := a.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return claims.Identity(), fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims.Identity(), nil
}

// Authorize is a pure predicate over the flat role enum. An empty
// allow-list admits any authenticated identity.
func (a *Authenticator) Authorize(identity *domain.Identity, allowed ...domain.Role) error {
	if identity == nil {
		return ErrNoToken
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, role := range allowed {
		if identity.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// TokenManager exposes the codec for login and logout flows.
func (a *Authenticator) TokenManager() *TokenManager {
	return a.tokens
}
