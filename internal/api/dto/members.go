package dto

import (
	"time"

	"github.com/hugh/go-pools/internal/database/models"
)

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type MemberResponse struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email,omitempty"`
	Name     string    `json:"name,omitempty"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

func NewMemberResponse(m *models.BoardMember) MemberResponse {
	resp := MemberResponse{
		UserID:   m.UserID.String(),
		Role:     string(m.Role),
		JoinedAt: m.CreatedAt,
	}
	if m.User != nil {
		resp.Email = m.User.Email
		resp.Name = m.User.DisplayName()
	}
	return resp
}

type CreateInviteRequest struct {
	Email string `json:"email"`
}

type AcceptInviteRequest struct {
	Token string `json:"token"`
}

type InviteResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	JoinURL   string    `json:"join_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewInviteResponse renders an invite. The join URL carries the secret token
// and is only included right after creation.
func NewInviteResponse(i *models.BoardInvite, joinURL string) InviteResponse {
	return InviteResponse{
		ID:        i.ID.String(),
		Email:     i.Email,
		ExpiresAt: i.ExpiresAt,
		JoinURL:   joinURL,
		CreatedAt: i.CreatedAt,
	}
}

type AcceptInviteResponse struct {
	BoardID string `json:"board_id"`
}
