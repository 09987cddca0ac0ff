package models

// Global roles. RoleAdmin is the site-wide commissioner that may override
// per-board checks.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	Base
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Role         string `gorm:"not null;default:'user'" json:"role"` // user, admin
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	// Relationships
	Sessions    []Session     `gorm:"foreignKey:UserID" json:"-"`
	Memberships []BoardMember `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsGlobalAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}
