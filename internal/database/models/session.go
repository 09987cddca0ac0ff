package models

import (
	"time"

	"github.com/google/uuid"
)

// Session backs a issued JWT. A token is only honoured while its session row
// exists and has not expired, which makes logout effective server-side.
type Session struct {
	Base
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	TokenID   string    `gorm:"uniqueIndex;not null" json:"-"` // JWT jti
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}
