package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/middleware"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
)

type BoardService interface {
	CreateBoard(ctx context.Context, creator uuid.UUID, name string) (*model.Board, error)
	Board(ctx context.Context, boardID uuid.UUID) (*model.Board, error)
	Boards(ctx context.Context, userID uuid.UUID) ([]model.Board, error)
	DeleteBoard(ctx context.Context, boardID uuid.UUID) error
	Invite(ctx context.Context, boardID uuid.UUID, email string) ([]model.Membership, error)
	RemoveMember(ctx context.Context, boardID, userID uuid.UUID) ([]model.Membership, error)
	Leave(ctx context.Context, boardID, userID uuid.UUID) error
	ChangeRole(ctx context.Context, boardID, userID uuid.UUID, role model.Role) ([]model.Membership, error)
	Expand(ctx context.Context, members []model.Membership) ([]model.MemberProfile, error)
}

type BoardHandler struct {
	boards BoardService
}

func NewBoardHandler(boards BoardService) *BoardHandler {
	return &BoardHandler{boards: boards}
}

type BoardRequest struct {
	Name string `json:"name" binding:"required"`
}

type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type RoleRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

// BoardResponse is a board with its members expanded to profiles.
type BoardResponse struct {
	ID        uuid.UUID             `json:"id"`
	Name      string                `json:"name"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
	Lists     []model.List          `json:"lists"`
	Members   []model.MemberProfile `json:"members"`
}

func (h *BoardHandler) respondBoard(c *gin.Context, status int, board *model.Board) {
	profiles, err := h.boards.Expand(c.Request.Context(), board.Members)
	if err != nil {
		respondError(c, err)
		return
	}
	lists := board.Lists
	if lists == nil {
		lists = []model.List{}
	}
	c.JSON(status, BoardResponse{
		ID:        board.ID,
		Name:      board.Name,
		CreatedAt: board.CreatedAt,
		UpdatedAt: board.UpdatedAt,
		Lists:     lists,
		Members:   profiles,
	})
}

func (h *BoardHandler) respondMembers(c *gin.Context, members []model.Membership) {
	profiles, err := h.boards.Expand(c.Request.Context(), members)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// Create godoc
// @Summary      Create a board
// @Tags         Boards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body BoardRequest true "Board"
// @Success      201 {object} BoardResponse
// @Router       /boards [post]
func (h *BoardHandler) Create(c *gin.Context) {
	var req BoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	board, err := h.boards.CreateBoard(c.Request.Context(), middleware.UserID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondBoard(c, http.StatusCreated, board)
}

// List godoc
// @Summary      Boards the caller is a member of
// @Tags         Boards
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} model.Board
// @Router       /boards [get]
func (h *BoardHandler) List(c *gin.Context) {
	boards, err := h.boards.Boards(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if boards == nil {
		boards = []model.Board{}
	}
	c.JSON(http.StatusOK, boards)
}

// Get godoc
// @Summary      Get a board with lists and member profiles
// @Tags         Boards
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Board ID"
// @Success      200 {object} BoardResponse
// @Router       /boards/{id} [get]
func (h *BoardHandler) Get(c *gin.Context) {
	board, err := h.boards.Board(c.Request.Context(), middleware.BoardID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondBoard(c, http.StatusOK, board)
}

// Delete godoc
// @Summary      Delete a board with its lists and tasks
// @Tags         Boards
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Success      204
// @Router       /boards/{id} [delete]
func (h *BoardHandler) Delete(c *gin.Context) {
	if err := h.boards.DeleteBoard(c.Request.Context(), middleware.BoardID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Invite godoc
// @Summary      Invite a registered user by email
// @Tags         Members
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Board ID"
// @Param        request body InviteRequest true "Invitee"
// @Success      200 {array} model.MemberProfile
// @Failure      404 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Router       /boards/{id}/members [post]
func (h *BoardHandler) Invite(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	members, err := h.boards.Invite(c.Request.Context(), middleware.BoardID(c), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondMembers(c, members)
}

// ChangeRole godoc
// @Summary      Change a member's role
// @Tags         Members
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Board ID"
// @Param        user_id path string true "User ID"
// @Param        request body RoleRequest true "Role"
// @Success      200 {array} model.MemberProfile
// @Failure      409 {object} map[string]string
// @Router       /boards/{id}/members/{user_id} [put]
func (h *BoardHandler) ChangeRole(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "user_id", "user")
	if !ok {
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	members, err := h.boards.ChangeRole(c.Request.Context(), middleware.BoardID(c), userID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondMembers(c, members)
}

// RemoveMember godoc
// @Summary      Remove a member
// @Tags         Members
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Board ID"
// @Param        user_id path string true "User ID"
// @Success      200 {array} model.MemberProfile
// @Failure      409 {object} map[string]string
// @Router       /boards/{id}/members/{user_id} [delete]
func (h *BoardHandler) RemoveMember(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "user_id", "user")
	if !ok {
		return
	}

	members, err := h.boards.RemoveMember(c.Request.Context(), middleware.BoardID(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondMembers(c, members)
}

// Leave godoc
// @Summary      Leave a board
// @Tags         Members
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Success      204
// @Failure      409 {object} map[string]string
// @Router       /boards/{id}/leave [post]
func (h *BoardHandler) Leave(c *gin.Context) {
	if err := h.boards.Leave(c.Request.Context(), middleware.BoardID(c), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
