package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BoardType string

const (
	BoardTypeSquares BoardType = "SQUARES"
	BoardTypeProps   BoardType = "PROPS"
)

func (t BoardType) Valid() bool {
	return t == BoardTypeSquares || t == BoardTypeProps
}

type Board struct {
	Base
	Name            string    `gorm:"size:120;not null" json:"name"`
	Type            BoardType `gorm:"size:16;not null;default:'SQUARES'" json:"type"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null" json:"created_by_user_id"`

	// Edit lock
	IsEditable    bool       `gorm:"not null;default:true" json:"is_editable"`
	EditableUntil *time.Time `json:"editable_until,omitempty"`

	// Squares settings
	MaxSquaresPerEmail *int `json:"max_squares_per_email,omitempty"`

	// Digits 0-9 assigned to each axis once the grid is filled (empty until then)
	HomeAxis          datatypes.JSONSlice[int] `json:"home_axis,omitempty"`
	AwayAxis          datatypes.JSONSlice[int] `json:"away_axis,omitempty"`
	NumbersAssignedAt *time.Time               `json:"numbers_assigned_at,omitempty"`

	// Relationships
	CreatedBy *User         `gorm:"foreignKey:CreatedByUserID" json:"-"`
	Members   []BoardMember `gorm:"foreignKey:BoardID" json:"-"`
	Squares   []Square      `gorm:"foreignKey:BoardID" json:"-"`
	Props     []Prop        `gorm:"foreignKey:BoardID" json:"-"`
	Invites   []BoardInvite `gorm:"foreignKey:BoardID" json:"-"`
}

func (Board) TableName() string {
	return "boards"
}

func (b *Board) HasNumbers() bool {
	return b.NumbersAssignedAt != nil && len(b.HomeAxis) == 10 && len(b.AwayAxis) == 10
}
