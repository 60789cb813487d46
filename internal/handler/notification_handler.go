package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/middleware"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
)

const notificationLimit = 50

type NotificationStore interface {
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

type NotificationHandler struct {
	store NotificationStore
}

func NewNotificationHandler(store NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// List godoc
// @Summary      Latest notifications of the caller
// @Tags         Notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} model.Notification
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	ns, err := h.store.ListForUser(c.Request.Context(), middleware.UserID(c), notificationLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	if ns == nil {
		ns = []model.Notification{}
	}
	c.JSON(http.StatusOK, ns)
}

// MarkRead godoc
// @Summary      Mark a notification read
// @Tags         Notifications
// @Security     BearerAuth
// @Param        id path string true "Notification ID"
// @Success      204
// @Failure      404 {object} map[string]string
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "notification")
	if !ok {
		return
	}
	if err := h.store.MarkRead(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
