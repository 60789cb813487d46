package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
)

type BoardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func loadBoard(db *gorm.DB, id uuid.UUID) (*model.Board, error) {
	var board model.Board
	err := db.
		Preload("Lists", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&board, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, ErrBoardNotFound)
	}
	return &board, nil
}

// Create stores the board together with its initial members
func (r *BoardRepository) Create(ctx context.Context, board *model.Board) error {
	return r.db.WithContext(ctx).Create(board).Error
}

// GetByID retrieves a board with its lists and members in order
func (r *BoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	return loadBoard(r.db.WithContext(ctx), id)
}

// GetForUser returns the boards the user is a member of
func (r *BoardRepository) GetForUser(ctx context.Context, userID uuid.UUID) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).
		Joins("JOIN board_members ON board_members.board_id = boards.id").
		Where("board_members.user_id = ?", userID).
		Preload("Lists", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("boards.created_at").
		Find(&boards).Error
	return boards, err
}

// Delete removes the board; lists, members and tasks cascade
func (r *BoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Board{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBoardNotFound
	}
	return nil
}

// Members returns the board's memberships in order
func (r *BoardRepository) Members(ctx context.Context, boardID uuid.UUID) ([]model.Membership, error) {
	var members []model.Membership
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("position").
		Find(&members).Error
	return members, err
}

// Role returns the user's role on the board, or "" when not a member
func (r *BoardRepository) Role(ctx context.Context, boardID, userID uuid.UUID) (model.Role, error) {
	var m model.Membership
	err := r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Limit(1).
		Find(&m).Error
	if err != nil {
		return "", err
	}
	if m.UserID != uuid.Nil {
		return m.Role, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Board{}).Where("id = ?", boardID).Count(&count).Error; err != nil {
		return "", err
	}
	if count == 0 {
		return "", ErrBoardNotFound
	}
	return "", nil
}

// UpdateMembers replaces the member set with what fn returns. The board row
// is locked for the duration so concurrent membership changes serialize.
// Tasks assigned to a user who drops out of the set become unassigned.
func (r *BoardRepository) UpdateMembers(ctx context.Context, boardID uuid.UUID,
	fn func(members []model.Membership) ([]model.Membership, error)) ([]model.Membership, error) {
	var next []model.Membership
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var board model.Board
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&board, "id = ?", boardID).Error; err != nil {
			return notFound(err, ErrBoardNotFound)
		}
		var current []model.Membership
		if err := tx.Where("board_id = ?", boardID).Order("position").Find(&current).Error; err != nil {
			return err
		}

		var err error
		next, err = fn(current)
		if err != nil {
			return err
		}

		if err := tx.Where("board_id = ?", boardID).Delete(&model.Membership{}).Error; err != nil {
			return err
		}
		for i := range next {
			next[i].BoardID = boardID
			next[i].Position = i
		}
		if len(next) > 0 {
			if err := tx.Create(&next).Error; err != nil {
				return err
			}
		}
		return unassignFormer(tx, boardID, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// unassignFormer clears the assignee of board tasks held by anyone outside
// members.
func unassignFormer(tx *gorm.DB, boardID uuid.UUID, members []model.Membership) error {
	q := tx.Model(&model.Task{}).Where("board_id = ? AND assigned_to IS NOT NULL", boardID)
	if len(members) > 0 {
		ids := make([]uuid.UUID, len(members))
		for i, m := range members {
			ids[i] = m.UserID
		}
		q = q.Where("assigned_to NOT IN ?", ids)
	}
	return q.Update("assigned_to", nil).Error
}
