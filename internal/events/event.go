// Package events carries committed board mutations to their side effects.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
)

type Kind string

// Board room event kinds
const (
	ListCreated    Kind = "list.created"
	ListDeleted    Kind = "list.deleted"
	ListsReordered Kind = "lists.reordered"
	TaskCreated    Kind = "task.created"
	TaskUpdated    Kind = "task.updated"
	TaskDeleted    Kind = "task.deleted"
	TaskCompleted  Kind = "task.completed"
)

// Event is one committed mutation. Task and List hold the resulting entity,
// or for deletions the last committed state, which is never broadcast.
type Event struct {
	Kind    Kind
	BoardID uuid.UUID
	ActorID uuid.UUID
	At      time.Time

	Task *model.Task
	List *model.List

	// PrevAssignee is the assignee before the mutation. Mutations that do
	// not touch the assignment carry the current assignee.
	PrevAssignee *uuid.UUID
	ListOrder    []uuid.UUID
}

type taskDeleted struct {
	TaskID uuid.UUID `json:"taskId"`
	ListID uuid.UUID `json:"listId"`
}

type listDeleted struct {
	ListID uuid.UUID `json:"listId"`
}

type listsReordered struct {
	BoardID uuid.UUID   `json:"boardId"`
	ListIDs []uuid.UUID `json:"listIds"`
}

// Payload is what the board room receives for the event.
func (e Event) Payload() any {
	switch e.Kind {
	case TaskDeleted:
		return taskDeleted{TaskID: e.Task.ID, ListID: e.Task.ListID}
	case ListDeleted:
		return listDeleted{ListID: e.List.ID}
	case ListsReordered:
		return listsReordered{BoardID: e.BoardID, ListIDs: e.ListOrder}
	case ListCreated:
		return e.List
	default:
		return e.Task
	}
}

// AssignedTo returns the new assignee when a create or an update changed the
// assignment to a different, non-nil user.
func (e Event) AssignedTo() (uuid.UUID, bool) {
	if e.Task == nil || e.Task.AssignedTo == nil {
		return uuid.Nil, false
	}
	if e.Kind != TaskCreated && e.Kind != TaskUpdated {
		return uuid.Nil, false
	}
	if e.PrevAssignee != nil && *e.PrevAssignee == *e.Task.AssignedTo {
		return uuid.Nil, false
	}
	return *e.Task.AssignedTo, true
}
