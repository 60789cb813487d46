// Package scanner issues one reminder per task each time its deadline
// enters the reminder window.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/notify"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/realtime"
)

type Audience string

// Reminder audiences
const (
	AudienceAssignee Audience = "assignee"
	AudienceMembers  Audience = "members"
)

type Store interface {
	DueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error)
	// ClaimReminder reports true for exactly one caller per task deadline.
	ClaimReminder(ctx context.Context, taskID uuid.UUID, deadline time.Time) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, n *model.Notification, event string) error
}

type Options struct {
	Interval time.Duration
	Window   time.Duration
	Audience Audience
}

type DeadlineScanner struct {
	store    Store
	members  notify.MemberLister
	notifier Notifier
	out      realtime.Broadcaster
	opts     Options
	logger   log.FieldLogger
}

type reminder struct {
	TaskID   uuid.UUID `json:"taskId"`
	BoardID  uuid.UUID `json:"boardId"`
	Title    string    `json:"title"`
	Deadline time.Time `json:"deadline"`
	Message  string    `json:"message"`
}

func New(store Store, members notify.MemberLister, notifier Notifier, out realtime.Broadcaster,
	opts Options, logger log.FieldLogger) *DeadlineScanner {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Window <= 0 {
		opts.Window = time.Hour
	}
	if opts.Audience != AudienceMembers {
		opts.Audience = AudienceAssignee
	}
	return &DeadlineScanner{
		store:    store,
		members:  members,
		notifier: notifier,
		out:      out,
		opts:     opts,
		logger:   logger,
	}
}

// Run scans once immediately and then on every interval until ctx is done.
func (s *DeadlineScanner) Run(ctx context.Context) {
	s.logger.Infof("⏰ deadline scanner started, interval: %s, window: %s, audience: %s",
		s.opts.Interval, s.opts.Window, s.opts.Audience)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		if _, err := s.Scan(ctx, time.Now()); err != nil && ctx.Err() == nil {
			s.logger.WithError(err).Error("deadline scan failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Scan issues reminders for tasks due within the window after now and
// returns how many tasks it claimed.
func (s *DeadlineScanner) Scan(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.DueBetween(ctx, now, now.Add(s.opts.Window))
	if err != nil {
		return 0, err
	}
	claimed := 0
	for i := range due {
		t := &due[i]
		if t.Deadline == nil {
			continue
		}
		ok, err := s.store.ClaimReminder(ctx, t.ID, *t.Deadline)
		if err != nil {
			s.logger.WithError(err).WithField("task", t.ID).Error("claim reminder")
			continue
		}
		if !ok {
			continue
		}
		claimed++
		s.remind(ctx, t)
	}
	return claimed, nil
}

func (s *DeadlineScanner) remind(ctx context.Context, t *model.Task) {
	logger := s.logger.WithFields(log.Fields{"task": t.ID, "board": t.BoardID})
	msg := fmt.Sprintf("Task %q is due at %s", t.Title, t.Deadline.Format("15:04"))

	recipients, err := s.recipients(ctx, t)
	if err != nil {
		logger.WithError(err).Error("resolve reminder recipients")
	}
	for _, userID := range recipients {
		n := &model.Notification{
			UserID:      userID,
			BoardID:     t.BoardID,
			TaskID:      &t.ID,
			Kind:        model.NotificationReminder,
			Title:       t.Title,
			Message:     msg,
			Description: t.Description,
			Deadline:    t.Deadline,
		}
		if err := s.notifier.Notify(ctx, n, realtime.KindDeadlineReminder); err != nil {
			logger.WithError(err).WithField("user", userID).Error("reminder notification failed")
		}
	}

	err = s.out.BroadcastBoardEvent(t.BoardID, realtime.KindDeadlineReminder, reminder{
		TaskID:   t.ID,
		BoardID:  t.BoardID,
		Title:    t.Title,
		Deadline: *t.Deadline,
		Message:  msg,
	})
	if err != nil {
		logger.WithError(err).Error("reminder broadcast failed")
	}
}

func (s *DeadlineScanner) recipients(ctx context.Context, t *model.Task) ([]uuid.UUID, error) {
	if s.opts.Audience == AudienceAssignee && t.AssignedTo == nil {
		return nil, nil
	}
	members, err := s.members.Members(ctx, t.BoardID)
	if err != nil {
		return nil, err
	}
	if s.opts.Audience == AudienceAssignee {
		// An assignee who has left the board is not reminded.
		for _, m := range members {
			if m.UserID == *t.AssignedTo {
				return []uuid.UUID{m.UserID}, nil
			}
		}
		return nil, nil
	}
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids, nil
}
