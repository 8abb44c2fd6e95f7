package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	infraRepo "github.com/Samyak-Vishrani/Invoice-Management-System/internal/infrastructure/repository"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/presentation/http/dto/response"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/utils"
)

// AuthMiddleware creates a JWT authentication middleware for business users.
// It also injects the owner ID into the request context so repository
// queries are scoped to the authenticated user.
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return requireRole(jwtManager, utils.RoleUser)
}

// ClientAuthMiddleware authenticates portal clients
func ClientAuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return requireRole(jwtManager, utils.RoleClient)
}

func requireRole(jwtManager *utils.JWTManager, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearerToken(c, jwtManager)
		if !ok {
			return
		}

		if claims.Role != role {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		c.Set("subject_id", claims.SubjectID)
		c.Set("auth_role", claims.Role)
		c.Set("user_email", claims.Email)

		if claims.Role == utils.RoleUser {
			ctx := infraRepo.WithOwner(c.Request.Context(), claims.SubjectID)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

func parseBearerToken(c *gin.Context, jwtManager *utils.JWTManager) (*utils.JWTClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		response.Unauthorized(c, "Authorization header is required")
		c.Abort()
		return nil, false
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		response.Unauthorized(c, "Invalid authorization header format")
		c.Abort()
		return nil, false
	}

	claims, err := jwtManager.ValidateAccessToken(parts[1])
	if err != nil {
		response.Unauthorized(c, "Invalid or expired token")
		c.Abort()
		return nil, false
	}

	return claims, true
}
