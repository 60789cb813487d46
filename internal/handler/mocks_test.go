package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/middleware"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/ordering"
)

type MockBoardService struct {
	mock.Mock
}

func (m *MockBoardService) CreateBoard(ctx context.Context, creator uuid.UUID, name string) (*model.Board, error) {
	args := m.Called(ctx, creator, name)
	b, _ := args.Get(0).(*model.Board)
	return b, args.Error(1)
}

func (m *MockBoardService) Board(ctx context.Context, boardID uuid.UUID) (*model.Board, error) {
	args := m.Called(ctx, boardID)
	b, _ := args.Get(0).(*model.Board)
	return b, args.Error(1)
}

func (m *MockBoardService) Boards(ctx context.Context, userID uuid.UUID) ([]model.Board, error) {
	args := m.Called(ctx, userID)
	b, _ := args.Get(0).([]model.Board)
	return b, args.Error(1)
}

func (m *MockBoardService) DeleteBoard(ctx context.Context, boardID uuid.UUID) error {
	return m.Called(ctx, boardID).Error(0)
}

func (m *MockBoardService) Invite(ctx context.Context, boardID uuid.UUID, email string) ([]model.Membership, error) {
	args := m.Called(ctx, boardID, email)
	ms, _ := args.Get(0).([]model.Membership)
	return ms, args.Error(1)
}

func (m *MockBoardService) RemoveMember(ctx context.Context, boardID, userID uuid.UUID) ([]model.Membership, error) {
	args := m.Called(ctx, boardID, userID)
	ms, _ := args.Get(0).([]model.Membership)
	return ms, args.Error(1)
}

func (m *MockBoardService) Leave(ctx context.Context, boardID, userID uuid.UUID) error {
	return m.Called(ctx, boardID, userID).Error(0)
}

func (m *MockBoardService) ChangeRole(ctx context.Context, boardID, userID uuid.UUID, role model.Role) ([]model.Membership, error) {
	args := m.Called(ctx, boardID, userID, role)
	ms, _ := args.Get(0).([]model.Membership)
	return ms, args.Error(1)
}

func (m *MockBoardService) Expand(ctx context.Context, members []model.Membership) ([]model.MemberProfile, error) {
	args := m.Called(ctx, members)
	ps, _ := args.Get(0).([]model.MemberProfile)
	return ps, args.Error(1)
}

// MockEngine covers both the task and the list side of the ordering engine.
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) CreateTask(ctx context.Context, actor ordering.Actor, boardID, listID uuid.UUID, attrs ordering.TaskAttrs) (*model.Task, error) {
	args := m.Called(ctx, actor, boardID, listID, attrs)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *MockEngine) MoveTask(ctx context.Context, actor ordering.Actor, taskID uuid.UUID, target ordering.MoveTarget) (*model.Task, error) {
	args := m.Called(ctx, actor, taskID, target)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *MockEngine) EditTask(ctx context.Context, actor ordering.Actor, taskID uuid.UUID, patch ordering.TaskPatch) (*model.Task, error) {
	args := m.Called(ctx, actor, taskID, patch)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *MockEngine) CompleteTask(ctx context.Context, actor ordering.Actor, taskID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, actor, taskID)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *MockEngine) DeleteTask(ctx context.Context, actor ordering.Actor, taskID uuid.UUID) error {
	return m.Called(ctx, actor, taskID).Error(0)
}

func (m *MockEngine) AddList(ctx context.Context, actor ordering.Actor, boardID uuid.UUID, name string) (*model.List, error) {
	args := m.Called(ctx, actor, boardID, name)
	l, _ := args.Get(0).(*model.List)
	return l, args.Error(1)
}

func (m *MockEngine) DeleteList(ctx context.Context, actor ordering.Actor, boardID, listID uuid.UUID) error {
	return m.Called(ctx, actor, boardID, listID).Error(0)
}

func (m *MockEngine) ReorderLists(ctx context.Context, actor ordering.Actor, boardID uuid.UUID, order []uuid.UUID) ([]model.List, error) {
	args := m.Called(ctx, actor, boardID, order)
	ls, _ := args.Get(0).([]model.List)
	return ls, args.Error(1)
}

type MockTaskReader struct {
	mock.Mock
}

func (m *MockTaskReader) Task(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *MockTaskReader) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, boardID)
	ts, _ := args.Get(0).([]model.Task)
	return ts, args.Error(1)
}

// caller stands in for the auth and board-role middleware.
func caller(userID, boardID uuid.UUID, role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		if boardID != uuid.Nil {
			c.Set(middleware.BoardIDKey, boardID)
			c.Set(middleware.BoardRoleKey, role)
		}
		c.Next()
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func errorBody(resp *httptest.ResponseRecorder) string {
	var body map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	return body["error"]
}
