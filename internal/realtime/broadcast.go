package realtime

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/events"
)

// EventBroadcaster pushes every committed event into its board room.
type EventBroadcaster struct {
	out    Broadcaster
	logger log.FieldLogger
}

var _ events.Handler = (*EventBroadcaster)(nil)

func NewEventBroadcaster(out Broadcaster, logger log.FieldLogger) *EventBroadcaster {
	return &EventBroadcaster{out: out, logger: logger}
}

func (b *EventBroadcaster) Handle(_ context.Context, ev events.Event) {
	if err := b.out.BroadcastBoardEvent(ev.BoardID, string(ev.Kind), ev.Payload()); err != nil {
		b.logger.WithError(err).WithFields(log.Fields{
			"board": ev.BoardID,
			"kind":  ev.Kind,
		}).Error("board broadcast failed")
	}
}
