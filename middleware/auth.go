package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"studentquiz/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	UserIDKey      = "user_id"
	TokenClaimsKey = "token_claims"
)

// AuthMiddleware requires a valid bearer token. Browsers cannot set headers
// on a websocket handshake, so upgrade requests may pass the token as the
// access_token query parameter instead.
func AuthMiddleware(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("access_token")
		if tokenStr == "" || !websocket.IsWebSocketUpgrade(c.Request) {
			header := c.GetHeader("Authorization")
			if header == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
				return
			}
			tokenStr = parts[1]
		}

		claims, err := authService.ValidateToken(c.Request.Context(), tokenStr)
		if err != nil {
			if !errors.Is(err, services.ErrInvalidToken) {
				slog.Error("token validation failed", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not validate token"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(TokenClaimsKey, claims)
		c.Next()
	}
}
