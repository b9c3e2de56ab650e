package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/bumex/engagement-service/internal/domain"
)

// RequireGlobalRole ensures the principal holds one of the allowed
// application-wide roles.
func RequireGlobalRole(allowed ...domain.GlobalRole) fiber.Handler {
	allowedSet := make(map[domain.GlobalRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireDevOrAdmin restricts a route to administrative correction roles.
func RequireDevOrAdmin() fiber.Handler {
	return RequireGlobalRole(domain.GlobalRoleDev, domain.GlobalRoleAdmin)
}

// RequireAuthenticated ensures a principal is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
