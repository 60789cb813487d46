package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/middleware"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/ordering"
)

type TaskEngine interface {
	CreateTask(ctx context.Context, actor ordering.Actor, boardID, listID uuid.UUID, attrs ordering.TaskAttrs) (*model.Task, error)
	MoveTask(ctx context.Context, actor ordering.Actor, taskID uuid.UUID, target ordering.MoveTarget) (*model.Task, error)
	EditTask(ctx context.Context, actor ordering.Actor, taskID uuid.UUID, patch ordering.TaskPatch) (*model.Task, error)
	CompleteTask(ctx context.Context, actor ordering.Actor, taskID uuid.UUID) (*model.Task, error)
	DeleteTask(ctx context.Context, actor ordering.Actor, taskID uuid.UUID) error
}

type TaskReader interface {
	Task(ctx context.Context, id uuid.UUID) (*model.Task, error)
	GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.Task, error)
}

type TaskHandler struct {
	engine TaskEngine
	tasks  TaskReader
	boards BoardReader
}

func NewTaskHandler(engine TaskEngine, tasks TaskReader, boards BoardReader) *TaskHandler {
	return &TaskHandler{engine: engine, tasks: tasks, boards: boards}
}

type CreateTaskRequest struct {
	ListID      string     `json:"listId" binding:"required,uuid"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Attachment  string     `json:"attachment"`
	AssignedTo  *string    `json:"assignedTo" binding:"omitempty,uuid"`
}

// UpdateTaskRequest is a partial edit; absent fields stay unchanged.
type UpdateTaskRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Deadline      *time.Time `json:"deadline"`
	ClearDeadline bool       `json:"clearDeadline"`
	Attachment    *string    `json:"attachment"`
	AssignedTo    *string    `json:"assignedTo" binding:"omitempty,uuid"`
	Unassign      bool       `json:"unassign"`
}

type MoveTaskRequest struct {
	ListID   *string `json:"listId" binding:"omitempty,uuid"`
	Position *int    `json:"position" binding:"omitempty,min=0"`
}

// ListTasks is one list of the board with its tasks in position order.
type ListTasks struct {
	model.List
	Tasks []model.Task `json:"tasks"`
}

// boardTask resolves :task_id and checks it belongs to the route's board.
func (h *TaskHandler) boardTask(c *gin.Context) (uuid.UUID, bool) {
	taskID, ok := parseUUIDParam(c, "task_id", "task")
	if !ok {
		return uuid.Nil, false
	}
	task, err := h.tasks.Task(c.Request.Context(), taskID)
	if err != nil {
		respondError(c, err)
		return uuid.Nil, false
	}
	if task.BoardID != middleware.BoardID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return uuid.Nil, false
	}
	return taskID, true
}

// Create godoc
// @Summary      Append a task to a list
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Board ID"
// @Param        request body CreateTaskRequest true "Task"
// @Success      201 {object} model.Task
// @Failure      400 {object} map[string]string
// @Router       /boards/{id}/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	assignee, err := parseOptionalUUID(req.AssignedTo)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.engine.CreateTask(c.Request.Context(), actor(c), middleware.BoardID(c), uuid.MustParse(req.ListID), ordering.TaskAttrs{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Attachment:  req.Attachment,
		AssignedTo:  assignee,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// List godoc
// @Summary      Tasks of the board grouped by list
// @Tags         Tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Board ID"
// @Success      200 {array} ListTasks
// @Router       /boards/{id}/tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	board, err := h.boards.Board(ctx, middleware.BoardID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	tasks, err := h.tasks.GetByBoardID(ctx, board.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	groups := make([]ListTasks, len(board.Lists))
	index := make(map[uuid.UUID]int, len(board.Lists))
	for i, l := range board.Lists {
		groups[i] = ListTasks{List: l, Tasks: []model.Task{}}
		index[l.ID] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.ListID]; ok {
			groups[i].Tasks = append(groups[i].Tasks, t)
		}
	}
	c.JSON(http.StatusOK, groups)
}

// Update godoc
// @Summary      Edit task fields
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Board ID"
// @Param        task_id path string true "Task ID"
// @Param        request body UpdateTaskRequest true "Fields to change"
// @Success      200 {object} model.Task
// @Router       /boards/{id}/tasks/{task_id} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	taskID, ok := h.boardTask(c)
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	assignee, err := parseOptionalUUID(req.AssignedTo)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.engine.EditTask(c.Request.Context(), actor(c), taskID, ordering.TaskPatch{
		Title:         req.Title,
		Description:   req.Description,
		Deadline:      req.Deadline,
		ClearDeadline: req.ClearDeadline,
		Attachment:    req.Attachment,
		AssignedTo:    assignee,
		Unassign:      req.Unassign,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Move godoc
// @Summary      Move a task within its list or to another list
// @Tags         Tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Board ID"
// @Param        task_id path string true "Task ID"
// @Param        request body MoveTaskRequest true "Target"
// @Success      200 {object} model.Task
// @Router       /boards/{id}/tasks/{task_id}/move [post]
func (h *TaskHandler) Move(c *gin.Context) {
	taskID, ok := h.boardTask(c)
	if !ok {
		return
	}
	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	listID, err := parseOptionalUUID(req.ListID)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.engine.MoveTask(c.Request.Context(), actor(c), taskID, ordering.MoveTarget{
		ListID:   listID,
		Position: req.Position,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Complete godoc
// @Summary      Mark a task completed
// @Tags         Tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Board ID"
// @Param        task_id path string true "Task ID"
// @Success      200 {object} model.Task
// @Failure      409 {object} map[string]string
// @Router       /boards/{id}/tasks/{task_id}/complete [post]
func (h *TaskHandler) Complete(c *gin.Context) {
	taskID, ok := h.boardTask(c)
	if !ok {
		return
	}

	task, err := h.engine.CompleteTask(c.Request.Context(), actor(c), taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary      Delete a task
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Param        task_id path string true "Task ID"
// @Success      204
// @Router       /boards/{id}/tasks/{task_id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	taskID, ok := h.boardTask(c)
	if !ok {
		return
	}

	if err := h.engine.DeleteTask(c.Request.Context(), actor(c), taskID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
