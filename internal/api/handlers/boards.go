package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hugh/go-pools/internal/api/dto"
	"github.com/hugh/go-pools/internal/boards"
	"github.com/hugh/go-pools/internal/database/models"
)

type BoardHandler struct {
	boards *boards.Service
	logger *slog.Logger
}

func NewBoardHandler(svc *boards.Service, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{boards: svc, logger: logger}
}

// List returns the boards the caller belongs to.
func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.boards.ListBoards(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := make([]dto.BoardResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.NewBoardResponse(&list[i].Board, list[i].Role, list[i].CanEdit))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBoardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, req.Validate()) {
		return
	}

	actor := actorFrom(r)
	created, err := h.boards.CreateBoard(r.Context(), actor, req.Name, models.BoardType(req.Type))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	board, err := h.boards.GetBoard(r.Context(), actor, created.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewBoardResponse(&board.Board, board.Role, board.CanEdit))
}

func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	board, err := h.boards.GetBoard(r.Context(), actorFrom(r), boardID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewBoardResponse(&board.Board, board.Role, board.CanEdit))
}

func (h *BoardHandler) Update(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	var req dto.UpdateBoardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := actorFrom(r)
	if _, err := h.boards.UpdateBoard(r.Context(), actor, boardID, req.ToUpdate()); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	board, err := h.boards.GetBoard(r.Context(), actor, boardID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewBoardResponse(&board.Board, board.Role, board.CanEdit))
}

func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	if err := h.boards.DeleteBoard(r.Context(), actorFrom(r), boardID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminList handles GET /api/v1/admin/boards
func (h *BoardHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	params := dto.PaginationParams{}
	params.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	params.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	params.Normalize()

	list, total, err := h.boards.ListAllBoards(r.Context(), actorFrom(r), params.Page, params.PerPage)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := make([]dto.BoardResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.NewBoardResponse(&list[i].Board, "", list[i].CanEdit))
	}
	writeJSON(w, http.StatusOK, dto.NewPaginatedResponse(resp, total, params))
}
