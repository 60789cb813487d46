package ordering

import (
	"context"

	"github.com/google/uuid"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/events"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
)

// Store is the persistence the engine runs against.
type Store interface {
	// Task reads a task outside of any transaction.
	Task(ctx context.Context, id uuid.UUID) (*model.Task, error)

	// InTx runs fn in one storage transaction. The storage additionally
	// serializes on keys (already sorted) for the transaction's lifetime.
	InTx(ctx context.Context, keys []uuid.UUID, fn func(tx Tx) error) error
}

// Tx is the set of reads and writes available inside a transaction.
type Tx interface {
	Task(id uuid.UUID) (*model.Task, error)
	// Board returns the board with lists in display order and members.
	Board(id uuid.UUID) (*model.Board, error)
	// MaxPosition returns the highest position in the list, -1 when empty.
	MaxPosition(listID uuid.UUID) (int, error)
	CountTasks(listID uuid.UUID) (int, error)
	// ShiftPositions adds delta to every task of the list whose position is
	// in [from, to]. A negative to means no upper bound.
	ShiftPositions(listID uuid.UUID, from, to, delta int) error
	CreateTask(t *model.Task) error
	SaveTask(t *model.Task) error
	DeleteTask(id uuid.UUID) error

	CreateList(l *model.List) error
	// DeleteList removes the list with its tasks and closes the gap in the
	// board's list order.
	DeleteList(l *model.List) error
	SetListOrder(boardID uuid.UUID, ids []uuid.UUID) error
}

// Publisher receives committed events.
type Publisher interface {
	Publish(ev events.Event)
}
