package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/RohitKattimani/MedReadApp/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionCookieName = "session_token"

// extractToken pulls the bearer credential from the Authorization header,
// falling back to the session cookie set on login.
func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if token, err := c.Cookie(sessionCookieName); err == nil {
		return token
	}
	return ""
}

// UserLoaderMiddleware resolves the request's bearer token to a user and adds
// it to the context. Expired or unknown tokens are treated as guests so
// public routes keep working; protected routes are rejected by AuthRequired.
func UserLoaderMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		session, err := repository.GetSessionByToken(c.Request.Context(), token)
		if err != nil || session.Expired(time.Now().UTC()) {
			// Unknown or expired credential; proceed as a guest.
			c.Next()
			return
		}

		c.Set("user", &session.User)
		c.Set("session_token", token)
		c.Next()
	}
}

// AuthRequired rejects requests that did not resolve to a valid user.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user"); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		c.Next()
	}
}
