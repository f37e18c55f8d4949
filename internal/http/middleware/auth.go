// README: Firebase ID-token auth middleware; exposes caller uid/role to handlers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"slotwise/internal/infra"
)

const (
	ctxCallerUID  = "caller_uid"
	ctxCallerRole = "caller_role"
	ctxCallerOrg  = "caller_org"
)

const (
	RoleTechnician = infra.RoleTechnician
	RoleDispatcher = infra.RoleDispatcher
)

// Auth rejects requests without a valid "Bearer <id token>" header.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimSpace(raw))
		if err != nil || token == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxCallerUID, token.UID)
		c.Set(ctxCallerRole, token.Role)
		c.Set(ctxCallerOrg, token.OrgID)
		c.Next()
	}
}

// CallerUID returns the authenticated uid, or "" when auth is not enabled.
func CallerUID(c *gin.Context) string {
	return c.GetString(ctxCallerUID)
}

func CallerRole(c *gin.Context) string {
	return c.GetString(ctxCallerRole)
}

// CallerOrg returns the organization the caller is bound to, or "" when unbound.
func CallerOrg(c *gin.Context) string {
	return c.GetString(ctxCallerOrg)
}

func Authenticated(c *gin.Context) bool {
	_, ok := c.Get(ctxCallerUID)
	return ok
}
