package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oggyb/ecstasy/internal/auth"
)

// CtxUserIDKey is where JWTAuth stores the authenticated caller's id.
const CtxUserIDKey = "userID"

// RequestID injects a unique request_id into the gin context for every request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// JWTAuth validates the bearer token (or access_token cookie) and injects the
// caller's user id. Services downstream receive a trusted id, nothing more.
func JWTAuth(jwt *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
			return
		}
		userID, err := jwt.ParseAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
			return
		}
		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// CallerID returns the authenticated user id set by JWTAuth.
func CallerID(c *gin.Context) uint64 {
	v, _ := c.Get(CtxUserIDKey)
	id, _ := v.(uint64)
	return id
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	token, _ := c.Cookie("access_token")
	return token
}
