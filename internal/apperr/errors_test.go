package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	assert.Equal(t, apperr.ErrValidation, apperr.Kind(apperr.Validation("bad %s", "order")))
	assert.Equal(t, apperr.ErrNotFound, apperr.Kind(apperr.NotFound("task")))
	assert.Equal(t, apperr.ErrConflict, apperr.Kind(fmt.Errorf("wrapped: %w", apperr.Conflict("last admin"))))
	assert.Equal(t, apperr.ErrDelivery, apperr.Kind(apperr.Delivery(errors.New("smtp down"), "mail to %s", "a@b.c")))
	assert.Nil(t, apperr.Kind(errors.New("boom")))
}

func TestMessagesCarryDetail(t *testing.T) {
	err := apperr.Validation("list %d missing", 3)
	assert.Equal(t, "validation failed: list 3 missing", err.Error())

	cause := errors.New("smtp down")
	err = apperr.Delivery(cause, "mail")
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, apperr.ErrDelivery)
}
