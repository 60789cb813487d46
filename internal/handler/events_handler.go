package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/middleware"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/realtime"
)

const defaultHeartbeat = 25 * time.Second

type SessionHub interface {
	Connect(userID uuid.UUID) *realtime.Session
	Session(id string) (*realtime.Session, bool)
	Disconnect(s *realtime.Session)
	Join(s *realtime.Session, boardID uuid.UUID) error
	Leave(s *realtime.Session, boardID uuid.UUID) error
	JoinUserChannel(s *realtime.Session, userID uuid.UUID) error
}

type EventsHandler struct {
	hub       SessionHub
	roles     middleware.RoleLookup
	heartbeat time.Duration
	logger    log.FieldLogger
}

func NewEventsHandler(hub SessionHub, roles middleware.RoleLookup, heartbeat time.Duration, logger log.FieldLogger) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &EventsHandler{hub: hub, roles: roles, heartbeat: heartbeat, logger: logger}
}

type RoomRequest struct {
	BoardID string `json:"boardId" binding:"required,uuid"`
}

// Stream godoc
// @Summary      Server-sent event stream
// @Description  The first event is "session" carrying the session id used by join, leave and register.
// @Tags         Realtime
// @Security     BearerAuth
// @Produce      text/event-stream
// @Param        token query string false "JWT for clients that cannot set headers"
// @Success      200
// @Router       /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	s := h.hub.Connect(middleware.UserID(c))
	defer h.hub.Disconnect(s)
	logger := h.logger.WithFields(log.Fields{"session": s.ID, "user": s.UserID})
	logger.Debug("stream opened")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("session", gin.H{"sessionId": s.ID})
	c.Writer.Flush()

	ping := time.NewTicker(h.heartbeat)
	defer ping.Stop()
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("stream closed by client")
			return
		case <-s.Done():
			return
		case msg := <-s.Messages():
			c.SSEvent(msg.Event, msg.Data)
			c.Writer.Flush()
		case <-ping.C:
			c.SSEvent("ping", time.Now().Unix())
			c.Writer.Flush()
		}
	}
}

// session resolves :session_id to a session owned by the caller.
func (h *EventsHandler) session(c *gin.Context) (*realtime.Session, bool) {
	s, ok := h.hub.Session(c.Param("session_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	if s.UserID != middleware.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Session belongs to another user"})
		return nil, false
	}
	return s, true
}

func (h *EventsHandler) room(c *gin.Context) (*realtime.Session, uuid.UUID, bool) {
	s, ok := h.session(c)
	if !ok {
		return nil, uuid.Nil, false
	}
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return nil, uuid.Nil, false
	}
	return s, uuid.MustParse(req.BoardID), true
}

// Join godoc
// @Summary      Subscribe a session to a board room
// @Tags         Realtime
// @Security     BearerAuth
// @Accept       json
// @Param        session_id path string true "Session ID"
// @Param        request body RoomRequest true "Board"
// @Success      204
// @Failure      403 {object} map[string]string
// @Router       /events/{session_id}/join [post]
func (h *EventsHandler) Join(c *gin.Context) {
	s, boardID, ok := h.room(c)
	if !ok {
		return
	}
	role, err := h.roles.Role(c.Request.Context(), boardID, s.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this board"})
		return
	}
	if err := h.hub.Join(s, boardID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Leave godoc
// @Summary      Unsubscribe a session from a board room
// @Tags         Realtime
// @Security     BearerAuth
// @Accept       json
// @Param        session_id path string true "Session ID"
// @Param        request body RoomRequest true "Board"
// @Success      204
// @Router       /events/{session_id}/leave [post]
func (h *EventsHandler) Leave(c *gin.Context) {
	s, boardID, ok := h.room(c)
	if !ok {
		return
	}
	if err := h.hub.Leave(s, boardID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Register godoc
// @Summary      Subscribe a session to the caller's notification channel
// @Tags         Realtime
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Success      204
// @Router       /events/{session_id}/register [post]
func (h *EventsHandler) Register(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.hub.JoinUserChannel(s, s.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ SessionHub = (*realtime.Hub)(nil)
