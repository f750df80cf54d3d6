package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"collegedesk/internal/registry"
)

const accountKey = "account"

// AccountLoader resolves a roll number to an account.
type AccountLoader interface {
	GetByRollNo(ctx context.Context, rollNo string) (*registry.Account, error)
}

// Require enforces bearer JWT tokens signed with HS256 and loads the caller's
// account into the request context.
func Require(signingKey, issuer string, accounts AccountLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			return
		}
		account, err := accounts.GetByRollNo(c.Request.Context(), claims.RollNo)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "account lookup failed"})
			return
		}
		if account == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "account no longer exists"})
			return
		}
		c.Set(accountKey, account)
		c.Next()
	}
}

// RequireAdmin gates a route group on the loaded account's role. Must run
// after Require.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		account := CallerAccount(c)
		if account == nil || account.Role != registry.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "admin access required"})
			return
		}
		c.Next()
	}
}

// CallerAccount returns the account attached by Require, or nil.
func CallerAccount(c *gin.Context) *registry.Account {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil
	}
	account, _ := v.(*registry.Account)
	return account
}
