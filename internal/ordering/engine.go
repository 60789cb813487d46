// Package ordering keeps task positions dense per list under concurrent
// create, move, and delete, and publishes every committed change.
package ordering

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/apperr"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/events"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
)

// maxRelocks bounds how often an operation chases a task whose list changed
// between the unlocked lookup and taking the list locks.
const maxRelocks = 5

var errListChanged = errors.New("task changed list while locking")

// Actor is the already authorized caller of a mutation.
type Actor struct {
	UserID uuid.UUID
	Role   model.Role
}

type TaskAttrs struct {
	Title       string
	Description string
	Deadline    *time.Time
	Attachment  string
	AssignedTo  *uuid.UUID
}

// TaskPatch is a partial edit. Nil fields are left untouched.
type TaskPatch struct {
	Title         *string
	Description   *string
	Deadline      *time.Time
	ClearDeadline bool
	Attachment    *string
	AssignedTo    *uuid.UUID
	Unassign      bool
}

// MoveTarget selects the destination. A nil ListID keeps the current list;
// a nil Position means 0 for a cross-list move and no change otherwise.
type MoveTarget struct {
	ListID   *uuid.UUID
	Position *int
}

type Engine struct {
	store  Store
	locks  *Locks
	pub    Publisher
	logger log.FieldLogger
	now    func() time.Time
}

func NewEngine(store Store, locks *Locks, pub Publisher, logger log.FieldLogger) *Engine {
	return &Engine{
		store:  store,
		locks:  locks,
		pub:    pub,
		logger: logger,
		now:    time.Now,
	}
}

// commit runs fn under the given keys and publishes the events it returns
// after the transaction committed and before the keys are released.
func (e *Engine) commit(ctx context.Context, keys []uuid.UUID, fn func(tx Tx) ([]events.Event, error)) error {
	keys = SortKeys(keys)
	release, err := e.locks.Acquire(ctx, keys...)
	if err != nil {
		return err
	}
	defer release()

	var evs []events.Event
	err = e.store.InTx(ctx, keys, func(tx Tx) error {
		var err error
		evs, err = fn(tx)
		return err
	})
	if err != nil {
		return err
	}
	for _, ev := range evs {
		e.pub.Publish(ev)
	}
	return nil
}

// withTask locks the task's current list plus the lists extra names, and
// runs fn with the task as read under those locks.
func (e *Engine) withTask(ctx context.Context, taskID uuid.UUID, extra func(t *model.Task) []uuid.UUID,
	fn func(tx Tx, t *model.Task) ([]events.Event, error)) error {
	for attempt := 0; attempt < maxRelocks; attempt++ {
		seen, err := e.store.Task(ctx, taskID)
		if err != nil {
			return err
		}
		keys := []uuid.UUID{seen.ListID}
		if extra != nil {
			keys = append(keys, extra(seen)...)
		}
		err = e.commit(ctx, keys, func(tx Tx) ([]events.Event, error) {
			t, err := tx.Task(taskID)
			if err != nil {
				return nil, err
			}
			if t.ListID != seen.ListID {
				return nil, errListChanged
			}
			return fn(tx, t)
		})
		if errors.Is(err, errListChanged) {
			e.logger.WithField("task", taskID).Debug("task moved while locking, retrying")
			continue
		}
		return err
	}
	return apperr.Conflict("task %s keeps moving, try again", taskID)
}

// event records the task's current assignee as the previous one, so an
// event only reports an assignment when its builder overrides PrevAssignee.
func (e *Engine) event(kind events.Kind, actor Actor, t *model.Task) events.Event {
	ev := events.Event{Kind: kind, BoardID: t.BoardID, ActorID: actor.UserID, At: e.now(), Task: t}
	if t.AssignedTo != nil {
		prev := *t.AssignedTo
		ev.PrevAssignee = &prev
	}
	return ev
}

func checkAssignee(board *model.Board, assignee *uuid.UUID) error {
	if assignee == nil {
		return nil
	}
	for _, m := range board.Members {
		if m.UserID == *assignee {
			return nil
		}
	}
	return apperr.Validation("assignee %s is not a member of the board", *assignee)
}

// CreateTask appends a task to the end of the list.
func (e *Engine) CreateTask(ctx context.Context, actor Actor, boardID, listID uuid.UUID, attrs TaskAttrs) (*model.Task, error) {
	if strings.TrimSpace(attrs.Title) == "" {
		return nil, apperr.Validation("title is required")
	}
	if listID == uuid.Nil {
		return nil, apperr.Validation("listId is required")
	}

	var created *model.Task
	err := e.commit(ctx, []uuid.UUID{listID}, func(tx Tx) ([]events.Event, error) {
		board, err := tx.Board(boardID)
		if err != nil {
			return nil, err
		}
		if board.FindList(listID) == nil {
			return nil, apperr.Validation("list %s does not exist on board %s", listID, boardID)
		}
		if err := checkAssignee(board, attrs.AssignedTo); err != nil {
			return nil, err
		}
		last, err := tx.MaxPosition(listID)
		if err != nil {
			return nil, err
		}
		t := &model.Task{
			ID:          uuid.New(),
			BoardID:     boardID,
			ListID:      listID,
			Title:       attrs.Title,
			Description: attrs.Description,
			Deadline:    attrs.Deadline,
			Attachment:  attrs.Attachment,
			AssignedTo:  attrs.AssignedTo,
			Position:    last + 1,
			CreatedBy:   actor.UserID,
		}
		if err := tx.CreateTask(t); err != nil {
			return nil, err
		}
		created = t
		ev := e.event(events.TaskCreated, actor, t)
		ev.PrevAssignee = nil
		return []events.Event{ev}, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// MoveTask reorders within a list or moves to another list of the same board.
func (e *Engine) MoveTask(ctx context.Context, actor Actor, taskID uuid.UUID, target MoveTarget) (*model.Task, error) {
	if target.Position != nil && *target.Position < 0 {
		return nil, apperr.Validation("position must be >= 0")
	}

	var moved *model.Task
	extra := func(t *model.Task) []uuid.UUID {
		if target.ListID != nil && *target.ListID != t.ListID {
			return []uuid.UUID{*target.ListID}
		}
		return nil
	}
	err := e.withTask(ctx, taskID, extra, func(tx Tx, t *model.Task) ([]events.Event, error) {
		moved = t
		dest := t.ListID
		if target.ListID != nil {
			dest = *target.ListID
		}

		if dest != t.ListID {
			board, err := tx.Board(t.BoardID)
			if err != nil {
				return nil, err
			}
			if board.FindList(dest) == nil {
				return nil, apperr.Validation("list %s does not exist on board %s", dest, t.BoardID)
			}
			n, err := tx.CountTasks(dest)
			if err != nil {
				return nil, err
			}
			pos := 0
			if target.Position != nil {
				pos = min(*target.Position, n)
			}
			if err := tx.ShiftPositions(t.ListID, t.Position+1, -1, -1); err != nil {
				return nil, err
			}
			if err := tx.ShiftPositions(dest, pos, -1, 1); err != nil {
				return nil, err
			}
			t.ListID = dest
			t.Position = pos
		} else {
			if target.Position == nil {
				return nil, nil
			}
			n, err := tx.CountTasks(dest)
			if err != nil {
				return nil, err
			}
			pos := min(*target.Position, n-1)
			old := t.Position
			switch {
			case pos == old:
				return nil, nil
			case pos > old:
				err = tx.ShiftPositions(dest, old+1, pos, -1)
			default:
				err = tx.ShiftPositions(dest, pos, old-1, 1)
			}
			if err != nil {
				return nil, err
			}
			t.Position = pos
		}

		if err := tx.SaveTask(t); err != nil {
			return nil, err
		}
		return []events.Event{e.event(events.TaskUpdated, actor, t)}, nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// EditTask applies a partial field edit. Position and list are untouched.
func (e *Engine) EditTask(ctx context.Context, actor Actor, taskID uuid.UUID, patch TaskPatch) (*model.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, apperr.Validation("title cannot be empty")
	}

	var edited *model.Task
	err := e.withTask(ctx, taskID, nil, func(tx Tx, t *model.Task) ([]events.Event, error) {
		prev := t.AssignedTo
		if patch.AssignedTo != nil {
			board, err := tx.Board(t.BoardID)
			if err != nil {
				return nil, err
			}
			if err := checkAssignee(board, patch.AssignedTo); err != nil {
				return nil, err
			}
			t.AssignedTo = patch.AssignedTo
		} else if patch.Unassign {
			t.AssignedTo = nil
		}
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Attachment != nil {
			t.Attachment = *patch.Attachment
		}
		if patch.Deadline != nil {
			t.Deadline = patch.Deadline
		} else if patch.ClearDeadline {
			t.Deadline = nil
		}

		if err := tx.SaveTask(t); err != nil {
			return nil, err
		}
		edited = t
		ev := e.event(events.TaskUpdated, actor, t)
		ev.PrevAssignee = prev
		return []events.Event{ev}, nil
	})
	if err != nil {
		return nil, err
	}
	return edited, nil
}

// CompleteTask marks the task completed by the actor. Completion is terminal.
func (e *Engine) CompleteTask(ctx context.Context, actor Actor, taskID uuid.UUID) (*model.Task, error) {
	var done *model.Task
	err := e.withTask(ctx, taskID, nil, func(tx Tx, t *model.Task) ([]events.Event, error) {
		if t.Completed {
			return nil, apperr.Conflict("task %s is already completed", taskID)
		}
		now := e.now()
		by := actor.UserID
		t.Completed = true
		t.CompletedBy = &by
		t.CompletedAt = &now
		if err := tx.SaveTask(t); err != nil {
			return nil, err
		}
		done = t
		return []events.Event{e.event(events.TaskCompleted, actor, t)}, nil
	})
	if err != nil {
		return nil, err
	}
	return done, nil
}

// DeleteTask removes the task and closes the gap it leaves in its list.
func (e *Engine) DeleteTask(ctx context.Context, actor Actor, taskID uuid.UUID) error {
	return e.withTask(ctx, taskID, nil, func(tx Tx, t *model.Task) ([]events.Event, error) {
		if err := tx.DeleteTask(t.ID); err != nil {
			return nil, err
		}
		if err := tx.ShiftPositions(t.ListID, t.Position+1, -1, -1); err != nil {
			return nil, err
		}
		return []events.Event{e.event(events.TaskDeleted, actor, t)}, nil
	})
}
