package boards

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/database/models"
	"gorm.io/datatypes"
)

// ValidateAxis reports whether axis is a permutation of the digits 0-9.
func ValidateAxis(axis []int) bool {
	if len(axis) != models.GridSize {
		return false
	}
	var seen [models.GridSize]bool
	for _, d := range axis {
		if d < 0 || d >= models.GridSize || seen[d] {
			return false
		}
		seen[d] = true
	}
	return true
}

func shuffledAxis() datatypes.JSONSlice[int] {
	return datatypes.JSONSlice[int](rand.Perm(models.GridSize))
}

// AssignNumbers draws the home (rows) and away (columns) digits for a squares
// board. Numbers are drawn once; ClearNumbers allows a redraw.
func (s *Service) AssignNumbers(ctx context.Context, actor Actor, boardID uuid.UUID) (*models.Board, error) {
	if _, err := s.RequireAdmin(ctx, actor, boardID); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	board, err := loadSquaresBoard(db, boardID)
	if err != nil {
		return nil, err
	}
	if board.NumbersAssignedAt != nil {
		return nil, ErrNumbersAssigned
	}

	home, away := shuffledAxis(), shuffledAxis()
	result := db.Model(&models.Board{}).
		Where("id = ? AND numbers_assigned_at IS NULL", boardID).
		Updates(map[string]interface{}{
			"home_axis":           home,
			"away_axis":           away,
			"numbers_assigned_at": s.now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("assigning numbers: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNumbersAssigned
	}

	s.logger.Info("numbers assigned", "board_id", boardID, "user_id", actor.UserID)
	return loadBoard(db, boardID)
}

// ClearNumbers removes drawn numbers. Global admins only.
func (s *Service) ClearNumbers(ctx context.Context, actor Actor, boardID uuid.UUID) error {
	if err := requireGlobalAdmin(actor); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	if _, err := loadSquaresBoard(db, boardID); err != nil {
		return err
	}

	if err := db.Model(&models.Board{}).
		Where("id = ?", boardID).
		Updates(map[string]interface{}{
			"home_axis":           datatypes.JSONSlice[int]{},
			"away_axis":           datatypes.JSONSlice[int]{},
			"numbers_assigned_at": nil,
		}).Error; err != nil {
		return fmt.Errorf("clearing numbers: %w", err)
	}

	s.logger.Info("numbers cleared", "board_id", boardID, "user_id", actor.UserID)
	return nil
}

// WinningSquare finds the square whose row digit matches the last digit of
// the home score and whose column digit matches the away score.
func (s *Service) WinningSquare(ctx context.Context, actor Actor, boardID uuid.UUID, homeScore, awayScore int) (*models.Square, error) {
	if homeScore < 0 || awayScore < 0 {
		return nil, invalid("scores must not be negative")
	}

	db := s.db.WithContext(ctx)
	board, err := loadSquaresBoard(db, boardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.RequireMember(ctx, actor, boardID); err != nil {
		return nil, err
	}
	if !board.HasNumbers() {
		return nil, ErrNumbersNotAssigned
	}

	row := indexOf(board.HomeAxis, homeScore%10)
	col := indexOf(board.AwayAxis, awayScore%10)
	if row < 0 || col < 0 {
		return nil, fmt.Errorf("board %s has a corrupt axis", boardID)
	}

	if err := ensureGrid(db, boardID); err != nil {
		return nil, err
	}

	var square models.Square
	if err := db.Preload("User").
		Where("board_id = ? AND grid_row = ? AND grid_col = ?", boardID, row, col).
		First(&square).Error; err != nil {
		return nil, fmt.Errorf("loading winning square: %w", err)
	}
	return &square, nil
}

func indexOf(axis []int, digit int) int {
	for i, d := range axis {
		if d == digit {
			return i
		}
	}
	return -1
}
