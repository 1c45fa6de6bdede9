package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pixelprint/storefront/internal/core/auth"
)

const (
	ContextSession = "session"
	ContextUserID  = "user_id"
)

type AuthMiddleware struct {
	verifier *auth.Verifier
}

func NewAuthMiddleware(verifier *auth.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate reads the bearer token once per request. A request without an
// Authorization header continues as anonymous; a header that is present but
// unusable is rejected.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(ContextSession, auth.Anonymous())
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}
		if !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unsupported authorization type"})
			return
		}

		session, err := m.verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextSession, session)
		if session.Trusted() {
			c.Set(ContextUserID, session.UserID)
		}
		c.Next()
	}
}

// RequireUser rejects callers whose user id was not verified locally. Routes
// that read storefront-owned data sit behind it.
func (m *AuthMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetSession(c).Trusted() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireIdentity rejects callers without a user id. It guards routes that
// only forward the token to a collaborator, which authenticates it itself.
func (m *AuthMiddleware) RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetSession(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// GetSession returns the caller's session, anonymous when none was set.
func GetSession(c *gin.Context) auth.Session {
	val, exists := c.Get(ContextSession)
	if !exists {
		return auth.Anonymous()
	}
	if s, ok := val.(auth.Session); ok {
		return s
	}
	return auth.Anonymous()
}

func GetUserID(c *gin.Context) (string, bool) {
	val, exists := c.Get(ContextUserID)
	if !exists {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}
