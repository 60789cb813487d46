package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/apperr"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
)

const (
	BoardIDKey   = "boardID"
	BoardRoleKey = "boardRole"
)

type RoleLookup interface {
	Role(ctx context.Context, boardID, userID uuid.UUID) (model.Role, error)
}

// RequireBoardRole resolves the caller's role on the board named by the :id
// route parameter. With no roles given any member passes.
func RequireBoardRole(lookup RoleLookup, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		boardID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID"})
			return
		}

		role, err := lookup.Role(c.Request.Context(), boardID, UserID(c))
		if errors.Is(err, apperr.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Board not found"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
			return
		}
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You are not a member of this board"})
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient board role"})
			return
		}

		c.Set(BoardIDKey, boardID)
		c.Set(BoardRoleKey, role)
		c.Next()
	}
}

func BoardID(c *gin.Context) uuid.UUID {
	v, _ := c.Get(BoardIDKey)
	id, _ := v.(uuid.UUID)
	return id
}

func BoardRole(c *gin.Context) model.Role {
	v, _ := c.Get(BoardRoleKey)
	role, _ := v.(model.Role)
	return role
}
