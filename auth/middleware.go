package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// RequireAuth rejects requests without a valid bearer token. Websocket
// clients that cannot set headers may pass ?token= instead.
func RequireAuth(issuer *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token", "code": "unauthorized"})
			return
		}

		p, err := issuer.Verify(tokenString)
		if err != nil {
			code := "unauthorized"
			if errors.Is(err, ErrExpiredToken) {
				code = "sessionExpired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": code})
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireAccount runs after RequireAuth and turns away anonymous guest
// sessions, which anyone can mint from a device id.
func RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token", "code": "unauthorized"})
			return
		}
		if p.Anonymous() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account required", "code": "forbidden"})
			return
		}
		c.Next()
	}
}

// FromContext returns the principal stored by RequireAuth.
func FromContext(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}
