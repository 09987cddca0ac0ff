package models

import "github.com/google/uuid"

// Grid dimensions of a squares board.
const (
	GridSize     = 10
	TotalSquares = GridSize * GridSize
)

type Square struct {
	Base
	BoardID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_squares_board_cell" json:"board_id"`
	Row     int        `gorm:"column:grid_row;not null;uniqueIndex:idx_squares_board_cell" json:"row"`
	Col     int        `gorm:"column:grid_col;not null;uniqueIndex:idx_squares_board_cell" json:"col"`
	UserID  *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`

	Board *Board `gorm:"foreignKey:BoardID" json:"-"`
	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Square) TableName() string {
	return "squares"
}

func (s *Square) IsClaimed() bool {
	return s.UserID != nil
}
