package model

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BoardID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"boardId"`
	ListID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"listId"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Attachment  string     `json:"attachment,omitempty"`
	Position    int        `gorm:"not null" json:"position"`
	AssignedTo  *uuid.UUID `gorm:"type:uuid" json:"assignedTo,omitempty"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null" json:"createdBy"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedBy *uuid.UUID `gorm:"type:uuid" json:"completedBy,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// ReminderSentFor holds the deadline value the last reminder was issued for.
	ReminderSentFor *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
