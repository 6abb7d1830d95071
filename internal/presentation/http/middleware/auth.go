package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	infraRepo "github.com/sangkips/backoffice-api/internal/infrastructure/repository"
	"github.com/sangkips/backoffice-api/internal/presentation/http/dto/response"
	"github.com/sangkips/backoffice-api/pkg/utils"
)

// Gin context keys set by AuthMiddleware
const (
	OperatorIDKey    = "operator_id"
	OperatorEmailKey = "operator_email"
	OperatorRolesKey = "operator_roles"
)

// AuthMiddleware creates a JWT authentication middleware. The operator is
// attached to the request context so ledger writes can attribute themselves.
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(OperatorIDKey, claims.OperatorID)
		c.Set(OperatorEmailKey, claims.Email)
		c.Set(OperatorRolesKey, claims.Roles)

		ctx := infraRepo.WithActor(c.Request.Context(), infraRepo.Actor{
			ID:    claims.OperatorID,
			Email: claims.Email,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole checks that the operator holds at least one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		granted, exists := c.Get(OperatorRolesKey)
		if !exists {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		for _, have := range granted.([]string) {
			for _, want := range roles {
				if have == want {
					c.Next()
					return
				}
			}
		}

		response.Forbidden(c, "Insufficient role")
		c.Abort()
	}
}
