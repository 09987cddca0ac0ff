package boards

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/database/models"
	"gorm.io/gorm"
)

func loadSquaresBoard(db *gorm.DB, boardID uuid.UUID) (*models.Board, error) {
	board, err := loadBoard(db, boardID)
	if err != nil {
		return nil, err
	}
	if board.Type != models.BoardTypeSquares {
		return nil, ErrNotSquares
	}
	return board, nil
}

func cellQuery(db *gorm.DB, boardID uuid.UUID, row, col int) *gorm.DB {
	return db.Model(&models.Square{}).
		Where("board_id = ? AND grid_row = ? AND grid_col = ?", boardID, row, col)
}

// ClaimSquare gives the cell to the actor if nobody owns it. Among concurrent
// claims for the same cell exactly one succeeds, the rest get ErrSquareTaken.
func (s *Service) ClaimSquare(ctx context.Context, actor Actor, boardID uuid.UUID, row, col int) (*models.Square, error) {
	if !validCell(row, col) {
		return nil, ErrInvalidCell
	}

	db := s.db.WithContext(ctx)
	board, err := loadSquaresBoard(db, boardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.RequireMember(ctx, actor, boardID); err != nil {
		return nil, err
	}
	if err := s.checkEditable(actor, board); err != nil {
		return nil, err
	}
	if err := ensureGrid(db, boardID); err != nil {
		return nil, err
	}

	// Best effort: two simultaneous claims by one user can both pass this check.
	if board.MaxSquaresPerEmail != nil && !actor.GlobalAdmin {
		var owned int64
		if err := db.Model(&models.Square{}).
			Where("board_id = ? AND user_id = ?", boardID, actor.UserID).
			Count(&owned).Error; err != nil {
			return nil, fmt.Errorf("counting claimed squares: %w", err)
		}
		if owned >= int64(*board.MaxSquaresPerEmail) {
			return nil, ErrSquareLimit
		}
	}

	result := cellQuery(db, boardID, row, col).
		Where("user_id IS NULL").
		Update("user_id", actor.UserID)
	if result.Error != nil {
		return nil, fmt.Errorf("claiming square: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrSquareTaken
	}

	var square models.Square
	if err := db.Preload("User").
		Where("board_id = ? AND grid_row = ? AND grid_col = ?", boardID, row, col).
		First(&square).Error; err != nil {
		return nil, fmt.Errorf("loading claimed square: %w", err)
	}

	s.logger.Info("square claimed", "board_id", boardID, "user_id", actor.UserID, "row", row, "col", col)
	return &square, nil
}

// ReleaseSquare clears the actor's claim on a cell. Global admins may clear
// any claim, regardless of owner or edit lock.
func (s *Service) ReleaseSquare(ctx context.Context, actor Actor, boardID uuid.UUID, row, col int) error {
	if !validCell(row, col) {
		return ErrInvalidCell
	}

	db := s.db.WithContext(ctx)
	board, err := loadSquaresBoard(db, boardID)
	if err != nil {
		return err
	}

	query := cellQuery(db, boardID, row, col)
	notChanged := ErrSquareNotFound
	if !actor.GlobalAdmin {
		if _, err := s.RequireMember(ctx, actor, boardID); err != nil {
			return err
		}
		if err := s.checkEditable(actor, board); err != nil {
			return err
		}
		query = query.Where("user_id = ?", actor.UserID)
		notChanged = ErrSquareNotYours
	}

	result := query.Update("user_id", nil)
	if result.Error != nil {
		return fmt.Errorf("releasing square: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notChanged
	}

	s.logger.Info("square released", "board_id", boardID, "user_id", actor.UserID, "row", row, "col", col)
	return nil
}

// ResetBoard clears every claim on the board. Global admins only; the edit
// lock does not apply.
func (s *Service) ResetBoard(ctx context.Context, actor Actor, boardID uuid.UUID) (int64, error) {
	if err := requireGlobalAdmin(actor); err != nil {
		return 0, err
	}

	db := s.db.WithContext(ctx)
	if _, err := loadSquaresBoard(db, boardID); err != nil {
		return 0, err
	}

	result := db.Model(&models.Square{}).
		Where("board_id = ? AND user_id IS NOT NULL", boardID).
		Update("user_id", nil)
	if result.Error != nil {
		return 0, fmt.Errorf("resetting board: %w", result.Error)
	}

	s.logger.Info("board reset", "board_id", boardID, "user_id", actor.UserID, "released", result.RowsAffected)
	return result.RowsAffected, nil
}
