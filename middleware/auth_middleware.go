package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"docuvault/models"
	"docuvault/utils"
)

// Context keys set by AuthMiddleware.
const (
	ContextActor   = "actor"
	ContextSubject = "subject"
)

// AuthMiddleware verifies the bearer token and stamps the caller's identity
// into the request context: the actor string for audit records and the full
// subject for permission checks.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			utils.UnauthorizedResponse(c, "Authorization token required")
			c.Abort()
			return
		}

		claims, err := utils.VerifyJWTToken(token, jwtSecret)
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}
		if claims.UserID == "" {
			utils.UnauthorizedResponse(c, "Token carries no user id")
			c.Abort()
			return
		}

		c.Set(ContextActor, claims.UserID)
		c.Set(ContextSubject, models.Subject{
			ID:     claims.UserID,
			Roles:  claims.Roles,
			Groups: claims.Groups,
		})

		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}

	return strings.TrimSpace(authHeader[len(bearerPrefix):])
}

// Actor returns the authenticated user id, empty when unauthenticated.
func Actor(c *gin.Context) string {
	return c.GetString(ContextActor)
}

// SubjectFrom returns the authenticated subject for permission evaluation.
func SubjectFrom(c *gin.Context) (models.Subject, bool) {
	v, ok := c.Get(ContextSubject)
	if !ok {
		return models.Subject{}, false
	}
	subject, ok := v.(models.Subject)
	return subject, ok
}

// RequireRole gates a route on one of the caller's roles.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := SubjectFrom(c)
		if !ok {
			utils.UnauthorizedResponse(c, "Authentication required")
			c.Abort()
			return
		}

		for _, role := range subject.Roles {
			if role == requiredRole {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c, "Insufficient privileges")
		c.Abort()
	}
}
