package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ArowuTest/leaderboard-draw-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/exp/slog"
)

// ContextOperatorKey holds the authenticated operator subject
const ContextOperatorKey = "operator"

// JWTAuthMiddleware creates a gin middleware for operator bearer tokens.
func JWTAuthMiddleware(tokens *jwt.OperatorTokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const BearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			slog.Warn("JWTAuthMiddleware: Authorization header is missing", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, BearerSchema) {
			slog.Warn("JWTAuthMiddleware: Authorization header format is invalid", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authorization header must start with Bearer "})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(authHeader[len(BearerSchema):]))
		if err != nil {
			slog.Warn("JWTAuthMiddleware: Token validation failed", "error", err)
			if errors.Is(err, jwtlib.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Token has expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid token"})
			}
			return
		}

		c.Set(ContextOperatorKey, claims.Subject)
		c.Next()
	}
}

// OperatorFromContext returns the subject set by JWTAuthMiddleware
func OperatorFromContext(c *gin.Context) string {
	if v, ok := c.Get(ContextOperatorKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return jwt.RoleOperator
}
