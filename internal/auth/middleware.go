package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/financing-service/internal/domain"
	apperrors "github.com/spec-kit/financing-service/pkg/util"
)

const identityKey = "auth_identity"

// genericAuthMessage is returned for every authentication failure so the
// response does not reveal which check rejected the token.
const genericAuthMessage = "invalid or expired token"

// Middleware validates bearer tokens on HTTP routes.
type Middleware struct {
	authenticator *Authenticator
	logger        *zap.Logger
}

// NewMiddleware constructs middleware.
func NewMiddleware(authenticator *Authenticator, logger *zap.Logger) *Middleware {
	return &Middleware{authenticator: authenticator, logger: logger}
}

// Handle enforces authentication for protected routes. If the revocation
// registry is unreachable the request is denied, except on read-only
// methods where the already-verified identity may proceed; state-changing
// requests always fail closed.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	identity, err := m.authenticator.Authenticate(c.Context(), BearerToken(c))
	if err != nil {
		if errors.Is(err, ErrRevocationUnavailable) && readOnlyMethod(c.Method()) {
			m.logger.Warn("revocation check skipped on read-only path",
				zap.Int64("user_id", identity.UserID),
				zap.Error(err))
			c.Locals(identityKey, identity)
			return c.Next()
		}
		m.logger.Debug("authentication failed", zap.Error(err))
		return apperrors.NewUnauthorized(genericAuthMessage)
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// RequireRole gates a route on the flat role allow-list.
func (m *Middleware) RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(genericAuthMessage)
		}
		if err := m.authenticator.Authorize(identity, allowed...); err != nil {
			return apperrors.NewForbidden("insufficient permissions")
		}
		return c.Next()
	}
}

// IdentityFromContext retrieves the authenticated identity.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}

// BearerToken returns the raw token from the Authorization header, or
// empty when absent or malformed.
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func readOnlyMethod(method string) bool {
	return method == fiber.MethodGet || method == fiber.MethodHead
}
