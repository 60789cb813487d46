package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationActivity NotificationKind = "activity"
	NotificationAssigned NotificationKind = "assigned"
	NotificationReminder NotificationKind = "reminder"
)

// Notification is persisted and transmitted with the same shape.
type Notification struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_notifications_user_created,priority:1" json:"user"`
	BoardID     uuid.UUID        `gorm:"type:uuid;not null" json:"boardId"`
	TaskID      *uuid.UUID       `gorm:"type:uuid" json:"taskId"`
	Kind        NotificationKind `gorm:"not null" json:"kind"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Description string           `json:"description,omitempty"`
	Deadline    *time.Time       `json:"deadline,omitempty"`
	Read        bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time        `gorm:"index:idx_notifications_user_created,priority:2,sort:desc" json:"createdAt"`
}
