package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Session is one connected client.
type Session struct {
	ID     string
	UserID uuid.UUID

	send      chan Message
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64

	// guarded by Hub.mu
	rooms      map[uuid.UUID]struct{}
	registered bool
}

func newSession(userID uuid.UUID, buffer int) *Session {
	return &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		send:   make(chan Message, buffer),
		done:   make(chan struct{}),
		rooms:  make(map[uuid.UUID]struct{}),
	}
}

// Messages yields queued messages. It is never closed; select on Done.
func (s *Session) Messages() <-chan Message { return s.send }

// Done is closed when the session is disconnected.
func (s *Session) Done() <-chan struct{} { return s.done }

// Dropped counts messages lost to a full buffer.
func (s *Session) Dropped() int64 { return s.dropped.Load() }

func (s *Session) offer(msg Message) bool {
	select {
	case <-s.done:
		return true
	default:
	}
	select {
	case s.send <- msg:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}
