package ordering

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/apperr"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/events"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
)

// AddList appends a list to the board's display order.
func (e *Engine) AddList(ctx context.Context, actor Actor, boardID uuid.UUID, name string) (*model.List, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("list name is required")
	}

	var created *model.List
	err := e.commit(ctx, []uuid.UUID{boardID}, func(tx Tx) ([]events.Event, error) {
		board, err := tx.Board(boardID)
		if err != nil {
			return nil, err
		}
		l := &model.List{
			ID:        uuid.New(),
			BoardID:   boardID,
			Name:      name,
			CreatedBy: actor.UserID,
			Position:  len(board.Lists),
		}
		if err := tx.CreateList(l); err != nil {
			return nil, err
		}
		created = l
		return []events.Event{{Kind: events.ListCreated, BoardID: boardID, ActorID: actor.UserID, At: e.now(), List: l}}, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteList removes a list and every task it owns.
func (e *Engine) DeleteList(ctx context.Context, actor Actor, boardID, listID uuid.UUID) error {
	return e.commit(ctx, []uuid.UUID{boardID, listID}, func(tx Tx) ([]events.Event, error) {
		board, err := tx.Board(boardID)
		if err != nil {
			return nil, err
		}
		l := board.FindList(listID)
		if l == nil {
			return nil, apperr.NotFound("list")
		}
		if err := tx.DeleteList(l); err != nil {
			return nil, err
		}
		return []events.Event{{Kind: events.ListDeleted, BoardID: boardID, ActorID: actor.UserID, At: e.now(), List: l}}, nil
	})
}

// ReorderLists replaces the board's list order. The new order must be a
// permutation of the current list ids.
func (e *Engine) ReorderLists(ctx context.Context, actor Actor, boardID uuid.UUID, order []uuid.UUID) ([]model.List, error) {
	var lists []model.List
	err := e.commit(ctx, []uuid.UUID{boardID}, func(tx Tx) ([]events.Event, error) {
		board, err := tx.Board(boardID)
		if err != nil {
			return nil, err
		}
		if err := checkPermutation(board.ListIDs(), order); err != nil {
			return nil, err
		}
		if err := tx.SetListOrder(boardID, order); err != nil {
			return nil, err
		}
		byID := make(map[uuid.UUID]model.List, len(board.Lists))
		for _, l := range board.Lists {
			byID[l.ID] = l
		}
		lists = make([]model.List, len(order))
		for i, id := range order {
			l := byID[id]
			l.Position = i
			lists[i] = l
		}
		ids := append([]uuid.UUID(nil), order...)
		return []events.Event{{Kind: events.ListsReordered, BoardID: boardID, ActorID: actor.UserID, At: e.now(), ListOrder: ids}}, nil
	})
	if err != nil {
		return nil, err
	}
	return lists, nil
}

func checkPermutation(current, order []uuid.UUID) error {
	if len(order) != len(current) {
		return apperr.Validation("expected %d list ids, got %d", len(current), len(order))
	}
	remaining := make(map[uuid.UUID]int, len(current))
	for _, id := range current {
		remaining[id]++
	}
	for _, id := range order {
		if remaining[id] == 0 {
			return apperr.Validation("list id %s is unknown or repeated", id)
		}
		remaining[id]--
	}
	return nil
}
