package models

import "github.com/google/uuid"

type BoardRole string

const (
	BoardRoleOwner  BoardRole = "OWNER"
	BoardRoleAdmin  BoardRole = "ADMIN"
	BoardRoleMember BoardRole = "MEMBER"
)

func (r BoardRole) Valid() bool {
	switch r {
	case BoardRoleOwner, BoardRoleAdmin, BoardRoleMember:
		return true
	}
	return false
}

// CanAdminister reports whether the role may manage the board.
func (r BoardRole) CanAdminister() bool {
	return r == BoardRoleOwner || r == BoardRoleAdmin
}

type BoardMember struct {
	Base
	BoardID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_board_members_board_user" json:"board_id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_board_members_board_user;index" json:"user_id"`
	Role    BoardRole `gorm:"size:16;not null;default:'MEMBER'" json:"role"`

	Board *Board `gorm:"foreignKey:BoardID" json:"-"`
	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (BoardMember) TableName() string {
	return "board_members"
}
