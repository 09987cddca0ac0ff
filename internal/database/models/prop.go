package models

import "github.com/google/uuid"

type Prop struct {
	Base
	BoardID  uuid.UUID `gorm:"type:uuid;index;not null" json:"board_id"`
	Question string    `gorm:"type:text;not null" json:"question"`

	Board   *Board       `gorm:"foreignKey:BoardID" json:"-"`
	Options []PropOption `gorm:"foreignKey:PropID" json:"options"`
	Picks   []PropPick   `gorm:"foreignKey:PropID" json:"-"`
}

func (Prop) TableName() string {
	return "props"
}

type PropOption struct {
	Base
	PropID   uuid.UUID `gorm:"type:uuid;index;not null" json:"prop_id"`
	Label    string    `gorm:"not null" json:"label"`
	Position int       `gorm:"not null;default:0" json:"position"`
}

func (PropOption) TableName() string {
	return "prop_options"
}

type PropPick struct {
	Base
	BoardID  uuid.UUID `gorm:"type:uuid;index;not null" json:"board_id"`
	PropID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_prop_picks_prop_user" json:"prop_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_prop_picks_prop_user;index" json:"user_id"`
	OptionID uuid.UUID `gorm:"type:uuid;index;not null" json:"option_id"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (PropPick) TableName() string {
	return "prop_picks"
}
