package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"storefront-core/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RoleAnon = "anon"

	ctxUserID = "user_id"
	ctxEmail  = "user_email"
	ctxRole   = "user_role"
	ctxAPIKey = "api_key"
)

// APIKeyMiddleware rejects requests whose apikey header is not the store key.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("apikey")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or missing API key", "hint": "Send the project key in the apikey header"})
			c.Abort()
			return
		}
		c.Set(ctxAPIKey, key)
		c.Next()
	}
}

// AuthMiddleware resolves the bearer credential. The API key itself is
// accepted as the anonymous role; anything else must be a valid access token.
func AuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(ctxRole, RoleAnon)
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"code": "PGRST301", "message": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token := parts[1]
		if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) == 1 {
			c.Set(ctxRole, RoleAnon)
			c.Next()
			return
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"code": "PGRST301", "message": "JWT expired or invalid"})
			c.Abort()
			return
		}

		userID, _ := claims.UserID()
		c.Set(ctxUserID, userID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireUser rejects anonymous callers.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ctxUserID); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "This endpoint requires a signed-in user"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user set by AuthMiddleware.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ctxUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func Email(c *gin.Context) string {
	return c.GetString(ctxEmail)
}
