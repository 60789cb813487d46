package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/auth"
)

// UserIDKey holds the authenticated uuid.UUID in the gin context.
const UserIDKey = "userID"

// JWTAuthMiddleware authenticates with the Authorization header, falling
// back to a token query parameter for EventSource clients.
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	tokens := auth.NewTokens(secret, 0)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if token := c.Query("token"); token != "" {
				header = "Bearer " + token
			}
		}
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		userID, err := tokens.Parse(parts[1])
		if errors.Is(err, auth.ErrInvalidUserID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user, uuid.Nil outside authorized routes.
func UserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(UserIDKey)
	userID, _ := id.(uuid.UUID)
	return userID
}
