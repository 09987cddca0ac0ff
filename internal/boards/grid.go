package boards

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var squareCellColumns = []clause.Column{{Name: "board_id"}, {Name: "grid_row"}, {Name: "grid_col"}}

// EnsureGrid makes sure the board has all 100 squares. It is idempotent and
// safe to call concurrently: duplicate cells are skipped by the database.
func (s *Service) EnsureGrid(ctx context.Context, boardID uuid.UUID) error {
	return ensureGrid(s.db.WithContext(ctx), boardID)
}

func ensureGrid(db *gorm.DB, boardID uuid.UUID) error {
	var count int64
	if err := db.Model(&models.Square{}).Where("board_id = ?", boardID).Count(&count).Error; err != nil {
		return fmt.Errorf("counting squares: %w", err)
	}
	if count >= models.TotalSquares {
		return nil
	}

	squares := make([]models.Square, 0, models.TotalSquares)
	for row := 0; row < models.GridSize; row++ {
		for col := 0; col < models.GridSize; col++ {
			squares = append(squares, models.Square{BoardID: boardID, Row: row, Col: col})
		}
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   squareCellColumns,
		DoNothing: true,
	}).CreateInBatches(&squares, models.TotalSquares).Error; err != nil {
		return fmt.Errorf("materializing grid: %w", err)
	}
	return nil
}

// ListSquares returns the board's grid ordered by row then column, with
// owners loaded.
func (s *Service) ListSquares(ctx context.Context, actor Actor, boardID uuid.UUID) ([]models.Square, error) {
	db := s.db.WithContext(ctx)

	board, err := loadBoard(db, boardID)
	if err != nil {
		return nil, err
	}
	if board.Type != models.BoardTypeSquares {
		return nil, ErrNotSquares
	}
	if _, err := s.RequireMember(ctx, actor, boardID); err != nil {
		return nil, err
	}
	if err := ensureGrid(db, boardID); err != nil {
		return nil, err
	}

	var squares []models.Square
	if err := db.Preload("User").
		Where("board_id = ?", boardID).
		Order("grid_row, grid_col").
		Find(&squares).Error; err != nil {
		return nil, fmt.Errorf("listing squares: %w", err)
	}
	return squares, nil
}

func validCell(row, col int) bool {
	return row >= 0 && row < models.GridSize && col >= 0 && col < models.GridSize
}
