// Package realtime pushes board events to connected sessions. Sessions join
// board rooms and their user channel; delivery is at-most-once.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/apperr"
)

// Message kinds that are not task or list events
const (
	KindDeadlineReminder = "deadlineReminder"
	KindTaskAssigned     = "taskAssigned"
	KindNotification     = "notification"
)

// Message is what a session receives.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Broadcaster is the send side of the hub used by the rest of the server.
type Broadcaster interface {
	BroadcastBoardEvent(boardID uuid.UUID, event string, payload any) error
	SendToUser(userID uuid.UUID, event string, payload any) error
}

// Relay forwards locally published envelopes to other server processes.
type Relay interface {
	Forward(env Envelope)
}

// Envelope is a message addressed to a board room or a user channel.
type Envelope struct {
	Origin  string     `json:"origin"`
	BoardID *uuid.UUID `json:"boardId,omitempty"`
	UserID  *uuid.UUID `json:"userId,omitempty"`
	Message Message    `json:"message"`
}

type Hub struct {
	id     string
	buffer int
	logger log.FieldLogger

	mu       sync.RWMutex
	sessions map[string]*Session
	rooms    map[uuid.UUID]map[*Session]struct{}
	users    map[uuid.UUID]map[*Session]struct{}
	relay    Relay
}

var _ Broadcaster = (*Hub)(nil)

// NewHub creates a hub whose sessions buffer up to buffer messages each.
func NewHub(buffer int, logger log.FieldLogger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		id:       uuid.NewString(),
		buffer:   buffer,
		logger:   logger,
		sessions: make(map[string]*Session),
		rooms:    make(map[uuid.UUID]map[*Session]struct{}),
		users:    make(map[uuid.UUID]map[*Session]struct{}),
	}
}

// ID identifies this hub in relayed envelopes.
func (h *Hub) ID() string { return h.id }

// SetRelay makes every local publication also go to r.
func (h *Hub) SetRelay(r Relay) {
	h.mu.Lock()
	h.relay = r
	h.mu.Unlock()
}

// Connect opens a session for an authenticated user.
func (h *Hub) Connect(userID uuid.UUID) *Session {
	s := newSession(userID, h.buffer)
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	h.logger.WithFields(log.Fields{"session": s.ID, "user": userID}).Debug("session connected")
	return s
}

// Session looks a connected session up by id.
func (h *Hub) Session(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Disconnect removes the session from every room and closes it.
func (h *Hub) Disconnect(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s.ID)
	for boardID := range s.rooms {
		h.removeMember(h.rooms, boardID, s)
	}
	if s.registered {
		h.removeMember(h.users, s.UserID, s)
	}
	h.mu.Unlock()

	s.close()
	h.logger.WithField("session", s.ID).Debug("session disconnected")
}

// DisconnectAll closes every session, used on shutdown.
func (h *Hub) DisconnectAll() {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()
	for _, s := range sessions {
		h.Disconnect(s)
	}
}

func (h *Hub) removeMember(set map[uuid.UUID]map[*Session]struct{}, key uuid.UUID, s *Session) {
	members := set[key]
	delete(members, s)
	if len(members) == 0 {
		delete(set, key)
	}
}

// Join subscribes the session to the board room. Joining twice is a no-op.
func (h *Hub) Join(s *Session, boardID uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s.ID]; !ok {
		return apperr.NotFound("session")
	}
	room, ok := h.rooms[boardID]
	if !ok {
		room = make(map[*Session]struct{})
		h.rooms[boardID] = room
	}
	room[s] = struct{}{}
	s.rooms[boardID] = struct{}{}
	return nil
}

// Leave unsubscribes the session from the board room.
func (h *Hub) Leave(s *Session, boardID uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s.ID]; !ok {
		return apperr.NotFound("session")
	}
	if _, ok := s.rooms[boardID]; ok {
		delete(s.rooms, boardID)
		h.removeMember(h.rooms, boardID, s)
	}
	return nil
}

// LeaveUser removes every session of the user from the board room, used
// when the user stops being a member.
func (h *Hub) LeaveUser(boardID, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.rooms[boardID] {
		if s.UserID == userID {
			delete(s.rooms, boardID)
			h.removeMember(h.rooms, boardID, s)
		}
	}
}

// JoinUserChannel registers the session to receive messages for userID.
// A session can only register for the user it was opened by.
func (h *Hub) JoinUserChannel(s *Session, userID uuid.UUID) error {
	if s.UserID != userID {
		return apperr.Validation("session belongs to another user")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s.ID]; !ok {
		return apperr.NotFound("session")
	}
	ch, ok := h.users[userID]
	if !ok {
		ch = make(map[*Session]struct{})
		h.users[userID] = ch
	}
	ch[s] = struct{}{}
	s.registered = true
	return nil
}

// BroadcastBoardEvent sends to every session in the board room.
func (h *Hub) BroadcastBoardEvent(boardID uuid.UUID, event string, payload any) error {
	msg, err := encode(event, payload)
	if err != nil {
		return err
	}
	h.Deliver(Envelope{BoardID: &boardID, Message: msg})
	h.forward(Envelope{Origin: h.id, BoardID: &boardID, Message: msg})
	return nil
}

// SendToUser sends to every session registered on the user channel.
func (h *Hub) SendToUser(userID uuid.UUID, event string, payload any) error {
	msg, err := encode(event, payload)
	if err != nil {
		return err
	}
	h.Deliver(Envelope{UserID: &userID, Message: msg})
	h.forward(Envelope{Origin: h.id, UserID: &userID, Message: msg})
	return nil
}

func (h *Hub) forward(env Envelope) {
	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()
	if relay != nil {
		relay.Forward(env)
	}
}

// Deliver hands the envelope to local sessions only.
func (h *Hub) Deliver(env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if env.BoardID != nil {
		for s := range h.rooms[*env.BoardID] {
			h.offer(s, env.Message)
		}
	}
	if env.UserID != nil {
		for s := range h.users[*env.UserID] {
			h.offer(s, env.Message)
		}
	}
}

func (h *Hub) offer(s *Session, msg Message) {
	if !s.offer(msg) {
		h.logger.WithFields(log.Fields{
			"session": s.ID,
			"user":    s.UserID,
			"event":   msg.Event,
		}).Warn("session buffer full, dropping message")
	}
}

func encode(event string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, apperr.Delivery(err, "encode %s", event)
	}
	return Message{Event: event, Data: data}, nil
}
