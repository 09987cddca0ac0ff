package models

import (
	"time"

	"github.com/google/uuid"
)

type BoardInvite struct {
	Base
	BoardID         uuid.UUID  `gorm:"type:uuid;index;not null" json:"board_id"`
	Email           string     `gorm:"not null;index" json:"email"`
	Token           string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt       time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt          *time.Time `json:"used_at,omitempty"`
	UsedByUserID    *uuid.UUID `gorm:"type:uuid" json:"used_by_user_id,omitempty"`
	CreatedByUserID uuid.UUID  `gorm:"type:uuid;not null" json:"created_by_user_id"`

	Board *Board `gorm:"foreignKey:BoardID" json:"-"`
}

func (BoardInvite) TableName() string {
	return "board_invites"
}

// IsValidAt reports whether the invite can still be consumed at t.
func (i *BoardInvite) IsValidAt(t time.Time) bool {
	return i.UsedAt == nil && i.ExpiresAt.After(t)
}
