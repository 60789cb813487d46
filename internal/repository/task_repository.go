package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/ordering"
)

type TaskRepository struct {
	db *gorm.DB
}

var _ ordering.Store = (*TaskRepository)(nil)

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Task retrieves a task by its ID
func (r *TaskRepository) Task(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	return (&taskTx{db: r.db.WithContext(ctx)}).Task(id)
}

// InTx runs fn in one transaction holding a postgres advisory lock per key,
// taken in the given order, until commit or rollback.
func (r *TaskRepository) InTx(ctx context.Context, keys []uuid.UUID, fn func(tx ordering.Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, k := range keys {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", k.String()).Error; err != nil {
				return err
			}
		}
		return fn(&taskTx{db: tx})
	})
}

// GetByBoardID retrieves every task of a board ordered by list and position
func (r *TaskRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("list_id").
		Order("position").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// DueBetween returns open tasks with a deadline in [from, to] that have not
// been reminded for their current deadline.
func (r *TaskRepository) DueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	var tasks []model.Task
	result := r.db.WithContext(ctx).
		Where("completed = ? AND deadline BETWEEN ? AND ?", false, from, to).
		Where("(reminder_sent_for IS NULL OR reminder_sent_for <> deadline)").
		Order("deadline").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// ClaimReminder records that a reminder is issued for the task's deadline.
// It reports false when another scan claimed it first or the deadline changed.
func (r *TaskRepository) ClaimReminder(ctx context.Context, taskID uuid.UUID, deadline time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND deadline = ?", taskID, deadline).
		Where("(reminder_sent_for IS NULL OR reminder_sent_for <> deadline)").
		UpdateColumn("reminder_sent_for", deadline)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

type taskTx struct {
	db *gorm.DB
}

func (tx *taskTx) Task(id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := tx.db.First(&task, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrTaskNotFound)
	}
	return &task, nil
}

func (tx *taskTx) Board(id uuid.UUID) (*model.Board, error) {
	return loadBoard(tx.db, id)
}

func (tx *taskTx) MaxPosition(listID uuid.UUID) (int, error) {
	var maxPosition struct {
		Max int
	}
	err := tx.db.Model(&model.Task{}).
		Select("COALESCE(MAX(position), -1) as max").
		Where("list_id = ?", listID).
		Scan(&maxPosition).Error

	return maxPosition.Max, err
}

func (tx *taskTx) CountTasks(listID uuid.UUID) (int, error) {
	var count int64
	err := tx.db.Model(&model.Task{}).Where("list_id = ?", listID).Count(&count).Error
	return int(count), err
}

func (tx *taskTx) ShiftPositions(listID uuid.UUID, from, to, delta int) error {
	q := tx.db.Model(&model.Task{}).Where("list_id = ? AND position >= ?", listID, from)
	if to >= 0 {
		q = q.Where("position <= ?", to)
	}
	return q.Update("position", gorm.Expr("position + ?", delta)).Error
}

func (tx *taskTx) CreateTask(t *model.Task) error {
	return tx.db.Create(t).Error
}

// saveColumns leaves reminder_sent_for to ClaimReminder, which runs without
// the list locks.
var saveColumns = []string{
	"list_id", "position", "title", "description", "deadline", "attachment",
	"assigned_to", "completed", "completed_by", "completed_at", "updated_at",
}

func (tx *taskTx) SaveTask(t *model.Task) error {
	result := tx.db.Model(t).Select(saveColumns).Updates(t)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (tx *taskTx) DeleteTask(id uuid.UUID) error {
	result := tx.db.Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (tx *taskTx) CreateList(l *model.List) error {
	return tx.db.Create(l).Error
}

func (tx *taskTx) DeleteList(l *model.List) error {
	if err := tx.db.Where("list_id = ?", l.ID).Delete(&model.Task{}).Error; err != nil {
		return err
	}
	if err := tx.db.Delete(&model.List{}, "id = ?", l.ID).Error; err != nil {
		return err
	}
	return tx.db.Model(&model.List{}).
		Where("board_id = ? AND position > ?", l.BoardID, l.Position).
		Update("position", gorm.Expr("position - 1")).Error
}

func (tx *taskTx) SetListOrder(boardID uuid.UUID, ids []uuid.UUID) error {
	for i, id := range ids {
		if err := tx.db.Model(&model.List{}).
			Where("id = ? AND board_id = ?", id, boardID).
			Update("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}
