package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleet-analytics/internal/auth"
	"fleet-analytics/internal/session"
)

const (
	sessionKey   = "session"
	authHeader   = "Authorization"
	bearerPrefix = "Bearer"
)

// Auth resolves the bearer token to a live session. No session means no
// backend API key, so protected routes refuse to fetch anything.
func Auth(tokens *auth.Manager, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(authHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header missing", "code": "NOT_AUTHENTICATED"})
			return
		}

		parts := strings.SplitN(raw, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header", "code": "NOT_AUTHENTICATED"})
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "NOT_AUTHENTICATED"})
			return
		}

		sessionID, err := uuid.Parse(claims.SessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "NOT_AUTHENTICATED"})
			return
		}

		sess, ok := sessions.Get(sessionID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired", "code": "NOT_AUTHENTICATED"})
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

func MustSession(c *gin.Context) (*session.Session, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := value.(*session.Session)
	if !ok {
		return nil, false
	}
	return sess, true
}
