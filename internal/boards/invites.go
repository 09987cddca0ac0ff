package boards

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/api/validation"
	"github.com/hugh/go-pools/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	InviteTTL = 7 * 24 * time.Hour

	inviteTokenBytes  = 32
	minInviteTokenLen = 20
)

// GenerateInviteToken returns 256 random bits rendered as 64 hex characters.
func GenerateInviteToken() (string, error) {
	buf := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating invite token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateInvite issues a single-use invite bound to email. Board admins only.
func (s *Service) CreateInvite(ctx context.Context, actor Actor, boardID uuid.UUID, email string) (*models.BoardInvite, error) {
	email = validation.NormalizeEmail(email)
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	if _, err := s.RequireAdmin(ctx, actor, boardID); err != nil {
		return nil, err
	}
	if _, err := loadBoard(s.db.WithContext(ctx), boardID); err != nil {
		return nil, err
	}

	token, err := GenerateInviteToken()
	if err != nil {
		return nil, err
	}

	invite := models.BoardInvite{
		BoardID:         boardID,
		Email:           email,
		Token:           token,
		ExpiresAt:       s.now().Add(InviteTTL),
		CreatedByUserID: actor.UserID,
	}
	if err := s.db.WithContext(ctx).Create(&invite).Error; err != nil {
		return nil, fmt.Errorf("creating invite: %w", err)
	}

	s.logger.Info("invite created", "board_id", boardID, "invite_id", invite.ID, "user_id", actor.UserID)
	return &invite, nil
}

// AcceptInvite consumes the invite and makes the actor a MEMBER of its board.
// Consumption, membership and grid materialization commit together.
func (s *Service) AcceptInvite(ctx context.Context, actor Actor, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if len(token) < minInviteTokenLen {
		return uuid.Nil, ErrInviteInvalid
	}

	now := s.now()
	var invite models.BoardInvite
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrInviteInvalid
		}
		return uuid.Nil, fmt.Errorf("loading invite: %w", err)
	}
	if !invite.IsValidAt(now) {
		return uuid.Nil, ErrInviteInvalid
	}
	if validation.NormalizeEmail(actor.Email) != invite.Email {
		return uuid.Nil, ErrInviteEmailMismatch
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Only one of several racing accepts can flip used_at.
		result := tx.Model(&models.BoardInvite{}).
			Where("id = ? AND used_at IS NULL AND expires_at > ?", invite.ID, now).
			Updates(map[string]interface{}{
				"used_at":         now,
				"used_by_user_id": actor.UserID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInviteInvalid
		}

		member := models.BoardMember{
			BoardID: invite.BoardID,
			UserID:  actor.UserID,
			Role:    models.BoardRoleMember,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "board_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&member).Error; err != nil {
			return err
		}

		board, err := loadBoard(tx, invite.BoardID)
		if err != nil {
			return err
		}
		if board.Type == models.BoardTypeSquares {
			return ensureGrid(tx, board.ID)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, wrapTx(err, "accepting invite")
	}

	s.logger.Info("invite accepted", "board_id", invite.BoardID, "invite_id", invite.ID, "user_id", actor.UserID)
	return invite.BoardID, nil
}

// RevokeInvite deletes an unused invite. Board admins only.
func (s *Service) RevokeInvite(ctx context.Context, actor Actor, boardID, inviteID uuid.UUID) error {
	if _, err := s.RequireAdmin(ctx, actor, boardID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("id = ? AND board_id = ? AND used_at IS NULL", inviteID, boardID).
		Delete(&models.BoardInvite{})
	if result.Error != nil {
		return fmt.Errorf("revoking invite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInviteNotFound
	}

	s.logger.Info("invite revoked", "board_id", boardID, "invite_id", inviteID, "user_id", actor.UserID)
	return nil
}

// ListInvites returns the board's outstanding invites, newest first.
func (s *Service) ListInvites(ctx context.Context, actor Actor, boardID uuid.UUID) ([]models.BoardInvite, error) {
	if _, err := s.RequireAdmin(ctx, actor, boardID); err != nil {
		return nil, err
	}

	var invites []models.BoardInvite
	if err := s.db.WithContext(ctx).
		Where("board_id = ? AND used_at IS NULL AND expires_at > ?", boardID, s.now()).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("listing invites: %w", err)
	}
	return invites, nil
}

// PurgeExpiredInvites deletes unused invites that expired before now.
func (s *Service) PurgeExpiredInvites(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("used_at IS NULL AND expires_at < ?", now).
		Delete(&models.BoardInvite{})
	if result.Error != nil {
		return 0, fmt.Errorf("purging invites: %w", result.Error)
	}
	return result.RowsAffected, nil
}
