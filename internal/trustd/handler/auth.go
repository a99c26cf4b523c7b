package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quantumpoly/trustcore/internal/identity"
)

const (
	ctxOperatorKey = "operator_id"
	ctxRoleKey     = "role"
)

// RequireRoleToken returns a middleware that authenticates the request with
// a governance role session token from the Authorization header and records
// the operator identity and role on the request context.
func RequireRoleToken(tokens *identity.RoleTokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired role token"})
			return
		}

		c.Set(ctxOperatorKey, claims.OperatorID)
		c.Set(ctxRoleKey, claims.Role)
		c.Next()
	}
}

// operatorFromCtx returns the authenticated operator id and role set by
// RequireRoleToken.
func operatorFromCtx(c *gin.Context) (operatorID, role string) {
	return c.GetString(ctxOperatorKey), c.GetString(ctxRoleKey)
}
