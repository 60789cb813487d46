package notify

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/apperr"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/events"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/realtime"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	if args.Error(0) == nil {
		n.ID = uuid.New()
	}
	return args.Error(0)
}

type MockMembers struct {
	mock.Mock
}

func (m *MockMembers) Members(ctx context.Context, boardID uuid.UUID) ([]model.Membership, error) {
	args := m.Called(ctx, boardID)
	members, _ := args.Get(0).([]model.Membership)
	return members, args.Error(1)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

type sent struct {
	user  uuid.UUID
	event string
	// persisted reports whether the notification had been stored when sent
	persisted bool
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []sent
	fail map[uuid.UUID]bool
}

func (b *recordingBroadcaster) BroadcastBoardEvent(uuid.UUID, string, any) error { return nil }

func (b *recordingBroadcaster) SendToUser(userID uuid.UUID, event string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail[userID] {
		return errors.New("gone")
	}
	n, _ := payload.(*model.Notification)
	b.sent = append(b.sent, sent{user: userID, event: event, persisted: n != nil && n.ID != uuid.Nil})
	return nil
}

type recordingMail struct {
	mails []Mail
}

func (r *recordingMail) Enqueue(m Mail) bool {
	r.mails = append(r.mails, m)
	return true
}

func quietLogger() log.FieldLogger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

type fanoutFixture struct {
	store   *MockStore
	members *MockMembers
	users   *MockUsers
	out     *recordingBroadcaster
	mail    *recordingMail
	fanout  *Fanout

	board, actor, alice, bob uuid.UUID
}

func newFanoutFixture(t *testing.T) *fanoutFixture {
	f := &fanoutFixture{
		store:   new(MockStore),
		members: new(MockMembers),
		users:   new(MockUsers),
		out:     &recordingBroadcaster{fail: map[uuid.UUID]bool{}},
		mail:    &recordingMail{},
		board:   uuid.New(),
		actor:   uuid.New(),
		alice:   uuid.New(),
		bob:     uuid.New(),
	}
	f.fanout = NewFanout(f.store, f.members, f.users, f.out, f.mail, quietLogger())
	f.members.On("Members", mock.Anything, f.board).Return([]model.Membership{
		{UserID: f.actor, Role: model.RoleAdmin},
		{UserID: f.alice, Role: model.RoleMember},
		{UserID: f.bob, Role: model.RoleMember},
	}, nil)
	return f
}

func (f *fanoutFixture) task() *model.Task {
	return &model.Task{ID: uuid.New(), BoardID: f.board, ListID: uuid.New(), Title: "Write docs"}
}

func TestFanout_NotifiesEveryMemberButActor(t *testing.T) {
	f := newFanoutFixture(t)
	f.store.On("Create", mock.Anything, mock.AnythingOfType("*model.Notification")).Return(nil)

	f.fanout.Handle(context.Background(), events.Event{
		Kind: events.TaskCreated, BoardID: f.board, ActorID: f.actor, Task: f.task(),
	})

	assert.Equal(t, []sent{
		{user: f.alice, event: realtime.KindNotification, persisted: true},
		{user: f.bob, event: realtime.KindNotification, persisted: true},
	}, f.out.sent)
	f.store.AssertNumberOfCalls(t, "Create", 2)

	stored := f.store.Calls[0].Arguments.Get(1).(*model.Notification)
	assert.Equal(t, f.alice, stored.UserID)
	assert.Equal(t, model.NotificationActivity, stored.Kind)
	assert.Equal(t, `Task "Write docs" was created`, stored.Message)
	assert.Empty(t, f.mail.mails)
}

func TestFanout_FailureIsIsolatedPerRecipient(t *testing.T) {
	f := newFanoutFixture(t)
	f.store.On("Create", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
		return n.UserID == f.alice
	})).Return(errors.New("disk full"))
	f.store.On("Create", mock.Anything, mock.AnythingOfType("*model.Notification")).Return(nil)

	f.fanout.Handle(context.Background(), events.Event{
		Kind: events.TaskUpdated, BoardID: f.board, ActorID: f.actor, Task: f.task(),
	})

	assert.Equal(t, []sent{{user: f.bob, event: realtime.KindNotification, persisted: true}}, f.out.sent)
}

func TestFanout_Assignment(t *testing.T) {
	f := newFanoutFixture(t)
	f.store.On("Create", mock.Anything, mock.AnythingOfType("*model.Notification")).Return(nil)
	f.users.On("GetByID", mock.Anything, f.bob).Return(&model.User{ID: f.bob, Name: "Bob", Email: "bob@example.com"}, nil)

	task := f.task()
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task.Deadline = &deadline
	task.AssignedTo = &f.bob
	f.fanout.Handle(context.Background(), events.Event{
		Kind: events.TaskUpdated, BoardID: f.board, ActorID: f.actor, Task: task, PrevAssignee: &f.alice,
	})

	assert.Len(t, f.out.sent, 3)
	assert.Equal(t, sent{user: f.bob, event: realtime.KindTaskAssigned, persisted: true}, f.out.sent[2])

	assigned := f.store.Calls[2].Arguments.Get(1).(*model.Notification)
	assert.Equal(t, model.NotificationAssigned, assigned.Kind)
	assert.Equal(t, &deadline, assigned.Deadline)

	if assert.Len(t, f.mail.mails, 1) {
		assert.Equal(t, "bob@example.com", f.mail.mails[0].To)
		assert.Equal(t, "New task assigned: Write docs", f.mail.mails[0].Subject)
		assert.Contains(t, f.mail.mails[0].Text, "Hello Bob")
		assert.Contains(t, f.mail.mails[0].HTML, "<strong>Write docs</strong>")
	}
}

func TestFanout_NoAssignmentNotice(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fanoutFixture, ev *events.Event)
	}{
		{
			name: "assignee unchanged",
			mutate: func(f *fanoutFixture, ev *events.Event) {
				ev.Task.AssignedTo = &f.bob
				ev.PrevAssignee = &f.bob
			},
		},
		{
			name: "actor assigns themselves",
			mutate: func(f *fanoutFixture, ev *events.Event) {
				ev.Task.AssignedTo = &f.actor
			},
		},
		{
			name: "assigned task moved",
			mutate: func(f *fanoutFixture, ev *events.Event) {
				assignee := f.bob
				ev.Task.AssignedTo = &f.bob
				ev.Task.Position = 4
				ev.PrevAssignee = &assignee
			},
		},
		{
			name: "assigned task completed",
			mutate: func(f *fanoutFixture, ev *events.Event) {
				ev.Kind = events.TaskCompleted
				ev.Task.AssignedTo = &f.bob
			},
		},
		{
			name: "unassigned",
			mutate: func(f *fanoutFixture, ev *events.Event) {
				ev.PrevAssignee = &f.bob
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFanoutFixture(t)
			f.store.On("Create", mock.Anything, mock.AnythingOfType("*model.Notification")).Return(nil)

			ev := events.Event{Kind: events.TaskUpdated, BoardID: f.board, ActorID: f.actor, Task: f.task()}
			tt.mutate(f, &ev)
			f.fanout.Handle(context.Background(), ev)

			assert.Len(t, f.out.sent, 2)
			assert.Empty(t, f.mail.mails)
			f.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}

func TestFanout_ListEvents(t *testing.T) {
	f := newFanoutFixture(t)
	f.store.On("Create", mock.Anything, mock.AnythingOfType("*model.Notification")).Return(nil)

	f.fanout.Handle(context.Background(), events.Event{
		Kind: events.ListDeleted, BoardID: f.board, ActorID: f.actor,
		List: &model.List{ID: uuid.New(), BoardID: f.board, Name: "Backlog"},
	})

	assert.Len(t, f.out.sent, 2)
	stored := f.store.Calls[0].Arguments.Get(1).(*model.Notification)
	assert.Equal(t, `List "Backlog" was deleted`, stored.Message)
	assert.Nil(t, stored.TaskID)
}

func TestFanout_SkipsListReorder(t *testing.T) {
	f := newFanoutFixture(t)

	f.fanout.Handle(context.Background(), events.Event{Kind: events.ListsReordered, BoardID: f.board, ActorID: f.actor})

	f.members.AssertNotCalled(t, "Members", mock.Anything, mock.Anything)
	assert.Empty(t, f.out.sent)
}

func TestFanout_Notify_DeliveryError(t *testing.T) {
	f := newFanoutFixture(t)
	f.store.On("Create", mock.Anything, mock.AnythingOfType("*model.Notification")).Return(nil)
	f.out.fail[f.alice] = true

	err := f.fanout.Notify(context.Background(), &model.Notification{UserID: f.alice, BoardID: f.board}, realtime.KindDeadlineReminder)

	assert.ErrorIs(t, err, apperr.ErrDelivery)
	f.store.AssertNumberOfCalls(t, "Create", 1)
}
