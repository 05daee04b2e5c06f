package middleware

import (
	"fmt"
	"strings"

	"learnquest/internal/domain"
	"learnquest/internal/dto"
	"learnquest/internal/logger"
	"learnquest/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	UserIDKey           = "userID"
	RoleKey             = "role"
)

// authFailure describes why a request carries no usable access token.
type authFailure struct {
	status int
	code   string
	msg    string
}

// accessClaims extracts and validates the bearer access token.
func accessClaims(c *fiber.Ctx, auth service.AuthService) (*dto.AuthClaims, *authFailure) {
	header := c.Get(AuthorizationHeader)
	if header == "" {
		return nil, &authFailure{fiber.StatusUnauthorized, "MISSING_AUTH_HEADER", "Authorization header is missing"}
	}
	if !strings.HasPrefix(header, BearerSchema) {
		return nil, &authFailure{fiber.StatusUnauthorized, "INVALID_AUTH_SCHEME", "Authorization scheme is not Bearer"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerSchema))
	if token == "" {
		return nil, &authFailure{fiber.StatusUnauthorized, "EMPTY_TOKEN", "Token is empty"}
	}

	claims, err := auth.ValidateJWT(c.Context(), token)
	if err != nil {
		return nil, &authFailure{fiber.StatusUnauthorized, "INVALID_TOKEN", err.Error()}
	}
	if claims.TokenType != service.TokenTypeAccess {
		return nil, &authFailure{fiber.StatusForbidden, "INVALID_TOKEN_TYPE",
			fmt.Sprintf("Invalid token type: expected %s, got %s", service.TokenTypeAccess, claims.TokenType)}
	}
	return claims, nil
}

func setIdentity(c *fiber.Ctx, claims *dto.AuthClaims) {
	c.Locals(UserIDKey, claims.UserID)
	c.Locals(RoleKey, claims.Role)
}

// Protected rejects requests without a valid access token.
func Protected(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, fail := accessClaims(c, authService)
		if fail != nil {
			return c.Status(fail.status).JSON(ErrorResponse{Code: fail.code, Message: fail.msg, Status: fail.status})
		}
		setIdentity(c, claims)
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a valid access token is present and
// lets every other request through anonymously.
func OptionalAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(AuthorizationHeader) == "" {
			return c.Next()
		}
		claims, fail := accessClaims(c, authService)
		if fail != nil {
			logger.Get().Debug("Proceeding anonymously", zap.String("reason", fail.code))
			return c.Next()
		}
		setIdentity(c, claims)
		return c.Next()
	}
}

// RequireRole must run after Protected. Any of the listed roles passes.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := RoleFrom(c)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return domain.NewForbiddenError("insufficient role").WithContext("required", roles)
	}
}

// UserIDFrom returns the authenticated user id, or "" for anonymous requests.
func UserIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}

func RoleFrom(c *fiber.Ctx) string {
	role, _ := c.Locals(RoleKey).(string)
	return role
}
