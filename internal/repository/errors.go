package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/apperr"
)

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = apperr.NotFound("task")

	// ErrBoardNotFound is returned when a board is not found
	ErrBoardNotFound = apperr.NotFound("board")

	// ErrNotificationNotFound is returned when a notification is not found
	// or belongs to another user
	ErrNotificationNotFound = apperr.NotFound("notification")
)

// notFound maps gorm's missing-row error onto the given not-found error.
func notFound(err error, nf error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return err
}
