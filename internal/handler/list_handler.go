package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/middleware"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/ordering"
)

type ListEngine interface {
	AddList(ctx context.Context, actor ordering.Actor, boardID uuid.UUID, name string) (*model.List, error)
	DeleteList(ctx context.Context, actor ordering.Actor, boardID, listID uuid.UUID) error
	ReorderLists(ctx context.Context, actor ordering.Actor, boardID uuid.UUID, order []uuid.UUID) ([]model.List, error)
}

type BoardReader interface {
	Board(ctx context.Context, boardID uuid.UUID) (*model.Board, error)
}

type ListHandler struct {
	engine ListEngine
	boards BoardReader
}

func NewListHandler(engine ListEngine, boards BoardReader) *ListHandler {
	return &ListHandler{engine: engine, boards: boards}
}

type ListRequest struct {
	Name string `json:"name" binding:"required"`
}

type ListOrderRequest struct {
	ListIDs []uuid.UUID `json:"listIds" binding:"required"`
}

func actor(c *gin.Context) ordering.Actor {
	return ordering.Actor{UserID: middleware.UserID(c), Role: middleware.BoardRole(c)}
}

// Create godoc
// @Summary      Add a list to the end of the board
// @Tags         Lists
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Board ID"
// @Param        request body ListRequest true "List"
// @Success      201 {object} model.List
// @Router       /boards/{id}/lists [post]
func (h *ListHandler) Create(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	list, err := h.engine.AddList(c.Request.Context(), actor(c), middleware.BoardID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// Delete godoc
// @Summary      Delete a list and its tasks
// @Description  Only the list creator or a board admin may delete a list.
// @Tags         Lists
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Param        list_id path string true "List ID"
// @Success      204
// @Failure      403 {object} map[string]string
// @Router       /boards/{id}/lists/{list_id} [delete]
func (h *ListHandler) Delete(c *gin.Context) {
	listID, ok := parseUUIDParam(c, "list_id", "list")
	if !ok {
		return
	}
	board, err := h.boards.Board(c.Request.Context(), middleware.BoardID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	list := board.FindList(listID)
	if list == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}
	a := actor(c)
	if a.Role != model.RoleAdmin && list.CreatedBy != a.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the list creator or a board admin can delete this list"})
		return
	}

	if err := h.engine.DeleteList(c.Request.Context(), a, board.ID, listID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reorder godoc
// @Summary      Replace the list order
// @Description  The order must be a permutation of the board's list ids.
// @Tags         Lists
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Board ID"
// @Param        request body ListOrderRequest true "New order"
// @Success      200 {array} model.List
// @Failure      400 {object} map[string]string
// @Router       /boards/{id}/lists/order [put]
func (h *ListHandler) Reorder(c *gin.Context) {
	var req ListOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	lists, err := h.engine.ReorderLists(c.Request.Context(), actor(c), middleware.BoardID(c), req.ListIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}
