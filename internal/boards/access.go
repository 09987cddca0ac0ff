package boards

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/database/models"
	"gorm.io/gorm"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID      uuid.UUID
	Email       string
	GlobalAdmin bool
}

// Access is a user's membership on a board. Role is empty for a global
// admin acting on a board they do not belong to.
type Access struct {
	BoardID uuid.UUID        `json:"board_id"`
	Role    models.BoardRole `json:"role,omitempty"`
}

func (a *Access) IsAdmin() bool {
	return a != nil && a.Role.CanAdminister()
}

// ResolveRole returns the user's membership on the board, or nil when the
// user is not a member.
func (s *Service) ResolveRole(ctx context.Context, userID, boardID uuid.UUID) (*Access, error) {
	return resolveRole(s.db.WithContext(ctx), userID, boardID)
}

func resolveRole(db *gorm.DB, userID, boardID uuid.UUID) (*Access, error) {
	var member models.BoardMember
	err := db.Where("board_id = ? AND user_id = ?", boardID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving board role: %w", err)
	}
	return &Access{BoardID: boardID, Role: member.Role}, nil
}

// RequireMember succeeds for any member of the board and for global admins.
func (s *Service) RequireMember(ctx context.Context, actor Actor, boardID uuid.UUID) (*Access, error) {
	access, err := s.ResolveRole(ctx, actor.UserID, boardID)
	if err != nil {
		return nil, err
	}
	if access != nil {
		return access, nil
	}
	if actor.GlobalAdmin {
		return &Access{BoardID: boardID}, nil
	}
	return nil, ErrNotMember
}

// RequireAdmin succeeds for board OWNERs and ADMINs and for global admins.
// A non-member gets ErrNotMember, a plain MEMBER gets ErrNotBoardAdmin.
func (s *Service) RequireAdmin(ctx context.Context, actor Actor, boardID uuid.UUID) (*Access, error) {
	access, err := s.RequireMember(ctx, actor, boardID)
	if err != nil {
		return nil, err
	}
	if actor.GlobalAdmin || access.IsAdmin() {
		return access, nil
	}
	return nil, ErrNotBoardAdmin
}

func requireGlobalAdmin(actor Actor) error {
	if !actor.GlobalAdmin {
		return ErrNotGlobalAdmin
	}
	return nil
}
