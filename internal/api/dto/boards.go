package dto

import (
	"time"

	"github.com/hugh/go-pools/internal/boards"
	"github.com/hugh/go-pools/internal/database/models"
)

type CreateBoardRequest struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

func (r CreateBoardRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if r.Type != "" && !models.BoardType(r.Type).Valid() {
		errors["type"] = "Type must be SQUARES or PROPS"
	}

	return errors
}

// UpdateBoardRequest changes board settings. Omitted fields are left alone;
// the clear flags null out the optional limits.
type UpdateBoardRequest struct {
	Name               *string    `json:"name,omitempty"`
	IsEditable         *bool      `json:"is_editable,omitempty"`
	EditableUntil      *time.Time `json:"editable_until,omitempty"`
	ClearEditableUntil bool       `json:"clear_editable_until,omitempty"`
	MaxSquaresPerEmail *int       `json:"max_squares_per_email,omitempty"`
	ClearMaxSquares    bool       `json:"clear_max_squares,omitempty"`
}

func (r UpdateBoardRequest) ToUpdate() boards.BoardUpdate {
	return boards.BoardUpdate{
		Name:               r.Name,
		IsEditable:         r.IsEditable,
		EditableUntil:      r.EditableUntil,
		ClearEditableUntil: r.ClearEditableUntil,
		MaxSquaresPerEmail: r.MaxSquaresPerEmail,
		ClearMaxSquares:    r.ClearMaxSquares,
	}
}

type BoardResponse struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Type               string     `json:"type"`
	CreatedByUserID    string     `json:"created_by_user_id"`
	IsEditable         bool       `json:"is_editable"`
	EditableUntil      *time.Time `json:"editable_until,omitempty"`
	CanEdit            bool       `json:"can_edit"`
	MaxSquaresPerEmail *int       `json:"max_squares_per_email,omitempty"`
	HomeAxis           []int      `json:"home_axis,omitempty"`
	AwayAxis           []int      `json:"away_axis,omitempty"`
	Role               string     `json:"role,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// NewBoardResponse renders a board; canEdit is evaluated by the caller
// against the server clock.
func NewBoardResponse(b *models.Board, role models.BoardRole, canEdit bool) BoardResponse {
	return BoardResponse{
		ID:                 b.ID.String(),
		Name:               b.Name,
		Type:               string(b.Type),
		CreatedByUserID:    b.CreatedByUserID.String(),
		IsEditable:         b.IsEditable,
		EditableUntil:      b.EditableUntil,
		CanEdit:            canEdit,
		MaxSquaresPerEmail: b.MaxSquaresPerEmail,
		HomeAxis:           b.HomeAxis,
		AwayAxis:           b.AwayAxis,
		Role:               string(role),
		CreatedAt:          b.CreatedAt,
	}
}

type CellRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

func (r CellRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Row == nil {
		errors["row"] = "Row is required"
	}
	if r.Col == nil {
		errors["col"] = "Col is required"
	}

	return errors
}

type SquareResponse struct {
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	OwnerID   string `json:"owner_id,omitempty"`
	OwnerName string `json:"owner_name,omitempty"`
}

func NewSquareResponse(s *models.Square) SquareResponse {
	resp := SquareResponse{Row: s.Row, Col: s.Col}
	if s.UserID != nil {
		resp.OwnerID = s.UserID.String()
	}
	if s.User != nil {
		resp.OwnerName = s.User.DisplayName()
	}
	return resp
}

type ResetResponse struct {
	Released int64 `json:"released"`
}

type WinnerResponse struct {
	HomeScore int            `json:"home_score"`
	AwayScore int            `json:"away_score"`
	Square    SquareResponse `json:"square"`
}
