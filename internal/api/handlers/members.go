package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hugh/go-pools/internal/api/dto"
	"github.com/hugh/go-pools/internal/boards"
	"github.com/hugh/go-pools/internal/database/models"
)

type MemberHandler struct {
	boards  *boards.Service
	logger  *slog.Logger
	baseURL string
}

// NewMemberHandler serves membership and invite routes. baseURL is used to
// build the join link returned when an invite is created.
func NewMemberHandler(svc *boards.Service, logger *slog.Logger, baseURL string) *MemberHandler {
	return &MemberHandler{
		boards:  svc,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	members, err := h.boards.ListMembers(r.Context(), actorFrom(r), boardID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := make([]dto.MemberResponse, 0, len(members))
	for i := range members {
		resp = append(resp, dto.NewMemberResponse(&members[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.boards.RemoveMember(r.Context(), actorFrom(r), boardID, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MemberHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	var req dto.ChangeRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.boards.ChangeRole(r.Context(), actorFrom(r), boardID, userID, models.BoardRole(strings.ToUpper(req.Role)))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewMemberResponse(member))
}

func (h *MemberHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	invites, err := h.boards.ListInvites(r.Context(), actorFrom(r), boardID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := make([]dto.InviteResponse, 0, len(invites))
	for i := range invites {
		resp = append(resp, dto.NewInviteResponse(&invites[i], ""))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MemberHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	var req dto.CreateInviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	invite, err := h.boards.CreateInvite(r.Context(), actorFrom(r), boardID, req.Email)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewInviteResponse(invite, h.joinURL(invite.Token)))
}

func (h *MemberHandler) RevokeInvite(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}
	inviteID, ok := pathID(w, r, "inviteID")
	if !ok {
		return
	}

	if err := h.boards.RevokeInvite(r.Context(), actorFrom(r), boardID, inviteID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AcceptInvite handles POST /api/v1/invites/accept
func (h *MemberHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req dto.AcceptInviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		validationFailed(w, map[string]string{"token": "Token is required"})
		return
	}

	boardID, err := h.boards.AcceptInvite(r.Context(), actorFrom(r), req.Token)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AcceptInviteResponse{BoardID: boardID.String()})
}

func (h *MemberHandler) joinURL(token string) string {
	return h.baseURL + "/join?token=" + url.QueryEscape(token)
}
