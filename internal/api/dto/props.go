package dto

import "github.com/hugh/go-pools/internal/database/models"

type CreatePropRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

func (r CreatePropRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Question == "" {
		errors["question"] = "Question is required"
	}
	if len(r.Options) < 2 {
		errors["options"] = "At least 2 options are required"
	}

	return errors
}

// UpdatePropRequest edits a prop. Options replace the existing set only
// when present in the body.
type UpdatePropRequest struct {
	Question *string  `json:"question,omitempty"`
	Options  []string `json:"options,omitempty"`
}

type PickRequest struct {
	OptionID string `json:"option_id"`
}

type PropOptionResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type PickResponse struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
	OptionID string `json:"option_id"`
}

type PropResponse struct {
	ID       string               `json:"id"`
	Question string               `json:"question"`
	Options  []PropOptionResponse `json:"options"`
	MyPick   string               `json:"my_pick,omitempty"`
	Picks    []PickResponse       `json:"picks,omitempty"`
}

func NewPropResponse(p *models.Prop) PropResponse {
	resp := PropResponse{
		ID:       p.ID.String(),
		Question: p.Question,
		Options:  make([]PropOptionResponse, 0, len(p.Options)),
	}
	for _, opt := range p.Options {
		resp.Options = append(resp.Options, PropOptionResponse{ID: opt.ID.String(), Label: opt.Label})
	}
	return resp
}

func NewPickResponse(p *models.PropPick) PickResponse {
	resp := PickResponse{
		UserID:   p.UserID.String(),
		OptionID: p.OptionID.String(),
	}
	if p.User != nil {
		resp.UserName = p.User.DisplayName()
	}
	return resp
}
