package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hugh/go-pools/internal/api/dto"
	"github.com/hugh/go-pools/internal/boards"
)

type SquareHandler struct {
	boards *boards.Service
	logger *slog.Logger
}

func NewSquareHandler(svc *boards.Service, logger *slog.Logger) *SquareHandler {
	return &SquareHandler{boards: svc, logger: logger}
}

func (h *SquareHandler) List(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	squares, err := h.boards.ListSquares(r.Context(), actorFrom(r), boardID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := make([]dto.SquareResponse, 0, len(squares))
	for i := range squares {
		resp = append(resp, dto.NewSquareResponse(&squares[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SquareHandler) Claim(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	var req dto.CellRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, req.Validate()) {
		return
	}

	square, err := h.boards.ClaimSquare(r.Context(), actorFrom(r), boardID, *req.Row, *req.Col)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSquareResponse(square))
}

func (h *SquareHandler) Release(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	var req dto.CellRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, req.Validate()) {
		return
	}

	if err := h.boards.ReleaseSquare(r.Context(), actorFrom(r), boardID, *req.Row, *req.Col); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Square released"})
}

// Reset releases every claimed square on the board.
func (h *SquareHandler) Reset(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	released, err := h.boards.ResetBoard(r.Context(), actorFrom(r), boardID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ResetResponse{Released: released})
}

func (h *SquareHandler) AssignNumbers(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	actor := actorFrom(r)
	if _, err := h.boards.AssignNumbers(r.Context(), actor, boardID); err != nil {
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

func (h *SquareHandler) ClearNumbers(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	if err := h.boards.ClearNumbers(r.Context(), actorFrom(r), boardID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Winner handles GET /boards/{boardID}/winner?home=N&away=M
func (h *SquareHandler) Winner(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	errs := make(map[string]string)
	home, err := strconv.Atoi(r.URL.Query().Get("home"))
	if err != nil {
		errs["home"] = "Home score must be an integer"
	}
	away, err := strconv.Atoi(r.URL.Query().Get("away"))
	if err != nil {
		errs["away"] = "Away score must be an integer"
	}
	if validationFailed(w, errs) {
		return
	}

	square, err := h.boards.WinningSquare(r.Context(), actorFrom(r), boardID, home, away)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WinnerResponse{
		HomeScore: home,
		AwayScore: away,
		Square:    dto.NewSquareResponse(square),
	})
}
