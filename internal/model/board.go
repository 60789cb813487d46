package model

import (
	"time"

	"github.com/google/uuid"
)

// Board owns its lists and its member set. Lists are kept in display order.
type Board struct {
	ID        uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Members   []Membership `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"members"`
	Lists     []List       `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"lists"`
}

// List is a column of a board. Position is the board display order.
type List struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BoardID   uuid.UUID `gorm:"type:uuid;not null;index" json:"boardId"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null" json:"createdBy"`
	Position  int       `gorm:"not null" json:"-"`
}

func (List) TableName() string {
	return "board_lists"
}

// ListIDs returns the ids of the board's lists in display order.
func (b *Board) ListIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(b.Lists))
	for i, l := range b.Lists {
		ids[i] = l.ID
	}
	return ids
}

// FindList returns the list with the given id, or nil.
func (b *Board) FindList(id uuid.UUID) *List {
	for i := range b.Lists {
		if b.Lists[i].ID == id {
			return &b.Lists[i]
		}
	}
	return nil
}
