package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

const principalKey = "auth_principal"

// Principal is the authenticated caller with resolved privileges.
type Principal struct {
	UserID   string
	Username string

	// Reviewer and Admin are derived from the caller's mirrored community
	// roles. A caller absent from the mirror is still authenticated, with
	// no privileges; fresh applicants are not community members yet.
	Reviewer bool
	Admin    bool
}

// Middleware validates bearer tokens and resolves principals from the
// membership mirror.
type Middleware struct {
	tokens  *TokenManager
	members member.Repository
	roleSet member.RoleSet
	logger  *zap.Logger
}

// NewMiddleware constructs the middleware.
func NewMiddleware(tokens *TokenManager, members member.Repository, roleSet member.RoleSet, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{
		tokens:  tokens,
		members: members,
		roleSet: roleSet,
		logger:  logger.With(zap.String("component", "auth")),
	}
}

// Handle enforces bearer authentication for all API routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	principal := &Principal{UserID: claims.UserID, Username: claims.Username}

	mirrored, err := m.members.GetByID(c.UserContext(), claims.UserID)
	switch {
	case err == nil && mirrored.Present():
		managerRole, hasManager := m.roleSet[member.RoleKindManager]
		adminRole, hasAdmin := m.roleSet[member.RoleKindAdmin]
		principal.Admin = hasAdmin && mirrored.HasRole(adminRole)
		// Admins review too.
		principal.Reviewer = principal.Admin || (hasManager && mirrored.HasRole(managerRole))
	case err != nil && !shared.IsNotFound(err):
		m.logger.Warn("mirror lookup failed, principal unprivileged",
			zap.String("user_id", claims.UserID),
			zap.Error(err),
		)
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// RequireReviewer gates review routes.
func RequireReviewer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if !principal.Reviewer {
			return fiber.NewError(fiber.StatusForbidden, "reviewer role required")
		}
		return c.Next()
	}
}

// RequireAdmin gates override routes.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if !principal.Admin {
			return fiber.NewError(fiber.StatusForbidden, "admin role required")
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
