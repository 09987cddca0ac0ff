package boards

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListMembers returns the board's members with users loaded, owners first.
func (s *Service) ListMembers(ctx context.Context, actor Actor, boardID uuid.UUID) ([]models.BoardMember, error) {
	if _, err := s.RequireAdmin(ctx, actor, boardID); err != nil {
		return nil, err
	}

	var members []models.BoardMember
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("board_id = ?", boardID).
		Order("CASE role WHEN 'OWNER' THEN 0 WHEN 'ADMIN' THEN 1 ELSE 2 END, created_at").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return members, nil
}

func loadMember(tx *gorm.DB, boardID, userID uuid.UUID) (*models.BoardMember, error) {
	var member models.BoardMember
	if err := lockForUpdate(tx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// lockOwners locks every OWNER row of the board in a stable order and
// returns how many there are. It must run before loadMember so concurrent
// removals and demotions queue on the same rows.
func lockOwners(tx *gorm.DB, boardID uuid.UUID) (int, error) {
	var owners []models.BoardMember
	err := lockForUpdate(tx).
		Where("board_id = ? AND role = ?", boardID, models.BoardRoleOwner).
		Order("user_id").
		Find(&owners).Error
	return len(owners), err
}

// RemoveMember removes userID from the board and releases their squares.
// The last OWNER cannot be removed and nobody can remove themselves.
func (s *Service) RemoveMember(ctx context.Context, actor Actor, boardID, userID uuid.UUID) error {
	if _, err := s.RequireAdmin(ctx, actor, boardID); err != nil {
		return err
	}
	if userID == actor.UserID {
		return ErrRemoveSelf
	}

	var released int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owners, err := lockOwners(tx, boardID)
		if err != nil {
			return err
		}
		member, err := loadMember(tx, boardID, userID)
		if err != nil {
			return err
		}

		if member.Role == models.BoardRoleOwner && owners <= 1 {
			return ErrLastOwner
		}

		result := tx.Model(&models.Square{}).
			Where("board_id = ? AND user_id = ?", boardID, userID).
			Update("user_id", nil)
		if result.Error != nil {
			return result.Error
		}
		released = result.RowsAffected

		return tx.Delete(member).Error
	})
	if err != nil {
		return wrapTx(err, "removing member")
	}

	s.logger.Info("member removed", "board_id", boardID, "user_id", userID, "removed_by", actor.UserID, "squares_released", released)
	return nil
}

// ChangeRole sets a member's role. Granting or revoking OWNER requires the
// actor to be an OWNER (or global admin), and the last OWNER cannot be
// demoted.
func (s *Service) ChangeRole(ctx context.Context, actor Actor, boardID, userID uuid.UUID, role models.BoardRole) (*models.BoardMember, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	access, err := s.RequireAdmin(ctx, actor, boardID)
	if err != nil {
		return nil, err
	}
	actorIsOwner := actor.GlobalAdmin || access.Role == models.BoardRoleOwner

	var member *models.BoardMember
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owners, err := lockOwners(tx, boardID)
		if err != nil {
			return err
		}
		member, err = loadMember(tx, boardID, userID)
		if err != nil {
			return err
		}
		if member.Role == role {
			return nil
		}

		touchesOwner := member.Role == models.BoardRoleOwner || role == models.BoardRoleOwner
		if touchesOwner && !actorIsOwner {
			return forbidden("only an owner can change owner roles")
		}

		if member.Role == models.BoardRoleOwner && owners <= 1 {
			return ErrLastOwner
		}

		if err := tx.Model(member).Update("role", role).Error; err != nil {
			return err
		}
		member.Role = role
		return nil
	})
	if err != nil {
		return nil, wrapTx(err, "changing role")
	}

	s.logger.Info("member role changed", "board_id", boardID, "user_id", userID, "role", role, "changed_by", actor.UserID)
	return member, nil
}

// lockForUpdate adds a row lock on databases that support it.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// lockForShare blocks concurrent FOR UPDATE holders without excluding other
// readers.
func lockForShare(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "SHARE"})
	}
	return tx
}
