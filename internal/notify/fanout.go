// Package notify persists per-member notifications for committed board
// changes and delivers them on user channels.
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/apperr"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/events"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/realtime"
)

type Store interface {
	Create(ctx context.Context, n *model.Notification) error
}

type MemberLister interface {
	Members(ctx context.Context, boardID uuid.UUID) ([]model.Membership, error)
}

type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type MailEnqueuer interface {
	Enqueue(m Mail) bool
}

type Fanout struct {
	store   Store
	members MemberLister
	users   UserGetter
	out     realtime.Broadcaster
	mail    MailEnqueuer
	logger  log.FieldLogger
}

var _ events.Handler = (*Fanout)(nil)

func NewFanout(store Store, members MemberLister, users UserGetter, out realtime.Broadcaster,
	mail MailEnqueuer, logger log.FieldLogger) *Fanout {
	return &Fanout{
		store:   store,
		members: members,
		users:   users,
		out:     out,
		mail:    mail,
		logger:  logger,
	}
}

// Notify persists n and then delivers it to its recipient as event.
func (f *Fanout) Notify(ctx context.Context, n *model.Notification, event string) error {
	if err := f.store.Create(ctx, n); err != nil {
		return apperr.Delivery(err, "persist notification for %s", n.UserID)
	}
	if err := f.out.SendToUser(n.UserID, event, n); err != nil {
		return apperr.Delivery(err, "deliver notification to %s", n.UserID)
	}
	return nil
}

// Handle notifies every member except the actor, then the new assignee.
func (f *Fanout) Handle(ctx context.Context, ev events.Event) {
	if ev.Kind == events.ListsReordered {
		return
	}
	logger := f.logger.WithFields(log.Fields{"board": ev.BoardID, "kind": ev.Kind})

	members, err := f.members.Members(ctx, ev.BoardID)
	if err != nil {
		logger.WithError(err).Error("load board members")
		return
	}
	for _, m := range members {
		if m.UserID == ev.ActorID {
			continue
		}
		n := activity(ev, m.UserID)
		if err := f.Notify(ctx, n, realtime.KindNotification); err != nil {
			logger.WithError(err).WithField("user", m.UserID).Error("activity notification failed")
		}
	}

	assignee, ok := ev.AssignedTo()
	if !ok || assignee == ev.ActorID {
		return
	}
	n := &model.Notification{
		UserID:      assignee,
		BoardID:     ev.BoardID,
		TaskID:      &ev.Task.ID,
		Kind:        model.NotificationAssigned,
		Title:       ev.Task.Title,
		Message:     fmt.Sprintf("You were assigned to %q", ev.Task.Title),
		Description: ev.Task.Description,
		Deadline:    ev.Task.Deadline,
	}
	if err := f.Notify(ctx, n, realtime.KindTaskAssigned); err != nil {
		logger.WithError(err).WithField("user", assignee).Error("assignment notification failed")
	}
	f.mailAssignment(ctx, logger, assignee, ev.Task)
}

func (f *Fanout) mailAssignment(ctx context.Context, logger log.FieldLogger, userID uuid.UUID, t *model.Task) {
	user, err := f.users.GetByID(ctx, userID)
	if err != nil || user == nil {
		logger.WithError(err).WithField("user", userID).Warn("assignee not found, mail skipped")
		return
	}
	text := fmt.Sprintf("Hello %s,\n\nYou have been assigned to the task %q.\n", user.Name, t.Title)
	if t.Deadline != nil {
		text += fmt.Sprintf("It is due %s.\n", t.Deadline.Format("Mon Jan 2 15:04 MST"))
	}
	text += "\nLogin to view the board.\n"
	body := fmt.Sprintf("<p>Hello %s,</p><p>You have been assigned to the task <strong>%s</strong>.</p>",
		html.EscapeString(user.Name), html.EscapeString(t.Title))
	if t.Deadline != nil {
		body += fmt.Sprintf("<p>It is due %s.</p>", t.Deadline.Format("Mon Jan 2 15:04 MST"))
	}
	body += "<p>Login to view the board.</p>"
	f.mail.Enqueue(Mail{
		To:      user.Email,
		Subject: "New task assigned: " + t.Title,
		Text:    text,
		HTML:    body,
	})
}

func activity(ev events.Event, userID uuid.UUID) *model.Notification {
	n := &model.Notification{
		UserID:  userID,
		BoardID: ev.BoardID,
		Kind:    model.NotificationActivity,
	}
	if ev.List != nil {
		n.Title = ev.List.Name
		switch ev.Kind {
		case events.ListCreated:
			n.Message = fmt.Sprintf("List %q was created", ev.List.Name)
		case events.ListDeleted:
			n.Message = fmt.Sprintf("List %q was deleted", ev.List.Name)
		}
		return n
	}
	if ev.Task == nil {
		return n
	}
	n.TaskID = &ev.Task.ID
	n.Title = ev.Task.Title
	n.Description = ev.Task.Description
	n.Deadline = ev.Task.Deadline
	switch ev.Kind {
	case events.TaskCreated:
		n.Message = fmt.Sprintf("Task %q was created", ev.Task.Title)
	case events.TaskUpdated:
		n.Message = fmt.Sprintf("Task %q was updated", ev.Task.Title)
	case events.TaskCompleted:
		n.Message = fmt.Sprintf("Task %q was completed", ev.Task.Title)
	case events.TaskDeleted:
		n.Message = fmt.Sprintf("Task %q was deleted", ev.Task.Title)
	}
	return n
}
