package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/bumex/engagement-service/internal/domain"
	apperrors "github.com/bumex/engagement-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User   *domain.User
	Claims *Claims
}

// SessionGuard validates the server-side session backing a token and
// enforces the pending-OTP resumption check before trusting it.
type SessionGuard interface {
	ValidateSession(ctx context.Context, claims *Claims) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	guard  SessionGuard
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, guard SessionGuard) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, guard: guard}
}

// Handle enforces full (post-OTP) authentication for protected routes. The
// session guard re-checks for a pending OTP record on every request, so a
// warm token from an unfinished login can never reach a handler.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	claims, err := m.parseBearer(c)
	if err != nil {
		return err
	}
	if claims.Stage != domain.TokenStageSession {
		return apperrors.NewUnauthorized("two-factor verification required")
	}

	user, err := m.guard.ValidateSession(c.UserContext(), claims)
	if err != nil {
		return err
	}

	c.Locals(principalKey, &Principal{User: user, Claims: claims})
	return c.Next()
}

// HandlePending accepts only half-authenticated tokens, for the OTP
// verify/resend endpoints.
func (m *AuthMiddleware) HandlePending(c *fiber.Ctx) error {
	claims, err := m.parseBearer(c)
	if err != nil {
		return err
	}
	if claims.Stage != domain.TokenStagePending {
		return apperrors.NewNoPendingAuth()
	}
	c.Locals(principalKey, &Principal{Claims: claims})
	return c.Next()
}

func (m *AuthMiddleware) parseBearer(c *fiber.Ctx) (*Claims, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	return claims, nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
