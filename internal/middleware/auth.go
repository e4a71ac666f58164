package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studiorent/internal/pkg/jwt"
	"studiorent/internal/pkg/response"
)

// RequireAuth validates the bearer token and stores the caller's identity
// (customer_email, role) on the request context.
func RequireAuth(tokens *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing Authorization header")
			c.Abort()
			return
		}

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Expected bearer token")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("customer_email", claims.Email)
		c.Set("role", claims.Role)
		c.Next()
	}
}
