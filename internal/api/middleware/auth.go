package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/pulsedash/pulse-backend-go/pkg/utils"
)

// ClientIDKey is the context key holding the authenticated client ID.
const ClientIDKey = "client_id"

// JWTAuth validates a Bearer token signed with the configured secret.
// Disabled auth installs no middleware; the router handles that choice.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			utils.SendError(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			utils.SendError(c, http.StatusUnauthorized, "Authorization header must be a Bearer token")
			c.Abort()
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			utils.SendError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		if sub, err := claims.GetSubject(); err == nil {
			c.Set(ClientIDKey, sub)
		}
		c.Next()
	}
}
