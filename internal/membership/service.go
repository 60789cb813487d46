// Package membership manages boards and their member sets. Every change
// keeps at least one admin on the board.
package membership

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/apperr"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/model"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/notify"
)

type Store interface {
	Create(ctx context.Context, board *model.Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error)
	GetForUser(ctx context.Context, userID uuid.UUID) ([]model.Board, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Members(ctx context.Context, boardID uuid.UUID) ([]model.Membership, error)
	Role(ctx context.Context, boardID, userID uuid.UUID) (model.Role, error)
	// UpdateMembers replaces the member set with fn's result atomically.
	UpdateMembers(ctx context.Context, boardID uuid.UUID,
		fn func(members []model.Membership) ([]model.Membership, error)) ([]model.Membership, error)
}

type Users interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error)
}

// RoomEvictor drops a user's live sessions from a board room.
type RoomEvictor interface {
	LeaveUser(boardID, userID uuid.UUID)
}

type Service struct {
	boards Store
	users  Users
	mail   notify.MailEnqueuer
	rooms  RoomEvictor
	logger log.FieldLogger
}

func NewService(boards Store, users Users, mail notify.MailEnqueuer, rooms RoomEvictor, logger log.FieldLogger) *Service {
	return &Service{boards: boards, users: users, mail: mail, rooms: rooms, logger: logger}
}

var errLastAdmin = apperr.Conflict("board must keep at least one admin")

// CreateBoard creates a board whose only member is its admin creator.
func (s *Service) CreateBoard(ctx context.Context, creator uuid.UUID, name string) (*model.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	board := &model.Board{
		ID:      uuid.New(),
		Name:    name,
		Members: []model.Membership{{UserID: creator, Role: model.RoleAdmin, Position: 0}},
		Lists:   []model.List{},
	}
	if err := s.boards.Create(ctx, board); err != nil {
		return nil, err
	}
	return board, nil
}

func (s *Service) Board(ctx context.Context, boardID uuid.UUID) (*model.Board, error) {
	return s.boards.GetByID(ctx, boardID)
}

func (s *Service) Boards(ctx context.Context, userID uuid.UUID) ([]model.Board, error) {
	return s.boards.GetForUser(ctx, userID)
}

func (s *Service) DeleteBoard(ctx context.Context, boardID uuid.UUID) error {
	return s.boards.Delete(ctx, boardID)
}

func (s *Service) Members(ctx context.Context, boardID uuid.UUID) ([]model.Membership, error) {
	return s.boards.Members(ctx, boardID)
}

// Role returns "" when the user is not a member of an existing board.
func (s *Service) Role(ctx context.Context, boardID, userID uuid.UUID) (model.Role, error) {
	return s.boards.Role(ctx, boardID, userID)
}

// Invite adds the user registered under email as a member and mails them.
func (s *Service) Invite(ctx context.Context, boardID uuid.UUID, email string) ([]model.Membership, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user")
	}
	board, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}

	members, err := s.boards.UpdateMembers(ctx, boardID, func(members []model.Membership) ([]model.Membership, error) {
		if indexOf(members, user.ID) >= 0 {
			return nil, apperr.Conflict("user already a member")
		}
		return append(members, model.Membership{UserID: user.ID, Role: model.RoleMember}), nil
	})
	if err != nil {
		return nil, err
	}

	if !s.mail.Enqueue(notify.Mail{
		To:      user.Email,
		Subject: "Invitation to join board: " + board.Name,
		Text: fmt.Sprintf("Hello %s,\n\nYou have been invited to join the board %q.\n\nLogin to view the board.\n",
			user.Name, board.Name),
		HTML: fmt.Sprintf("<p>Hello %s,</p><p>You have been invited to join the board <strong>%s</strong>.</p><p>Login to view the board.</p>",
			html.EscapeString(user.Name), html.EscapeString(board.Name)),
	}) {
		s.logger.WithFields(log.Fields{"board": boardID, "user": user.ID}).Warn("invitation mail not queued")
	}
	return members, nil
}

// RemoveMember removes userID from the board.
func (s *Service) RemoveMember(ctx context.Context, boardID, userID uuid.UUID) ([]model.Membership, error) {
	members, err := s.boards.UpdateMembers(ctx, boardID, func(members []model.Membership) ([]model.Membership, error) {
		i := indexOf(members, userID)
		if i < 0 {
			return nil, apperr.NotFound("member")
		}
		next := append(members[:i:i], members[i+1:]...)
		if model.CountAdmins(next) == 0 {
			return nil, errLastAdmin
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.rooms.LeaveUser(boardID, userID)
	return members, nil
}

// Leave removes the caller from the board.
func (s *Service) Leave(ctx context.Context, boardID, userID uuid.UUID) error {
	_, err := s.RemoveMember(ctx, boardID, userID)
	return err
}

func (s *Service) ChangeRole(ctx context.Context, boardID, userID uuid.UUID, role model.Role) ([]model.Membership, error) {
	if !role.Valid() {
		return nil, apperr.Validation("invalid role %q", role)
	}
	return s.boards.UpdateMembers(ctx, boardID, func(members []model.Membership) ([]model.Membership, error) {
		i := indexOf(members, userID)
		if i < 0 {
			return nil, apperr.NotFound("member")
		}
		members[i].Role = role
		if model.CountAdmins(members) == 0 {
			return nil, errLastAdmin
		}
		return members, nil
	})
}

// Expand resolves member profiles in membership order. Members whose user
// no longer exists are left out.
func (s *Service) Expand(ctx context.Context, members []model.Membership) ([]model.MemberProfile, error) {
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	profiles := make([]model.MemberProfile, 0, len(members))
	for _, m := range members {
		u, ok := byID[m.UserID]
		if !ok {
			continue
		}
		profiles = append(profiles, model.MemberProfile{UserID: m.UserID, Role: m.Role, Name: u.Name, Email: u.Email})
	}
	return profiles, nil
}

func indexOf(members []model.Membership, userID uuid.UUID) int {
	for i, m := range members {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}
