package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/api/dto"
	"github.com/hugh/go-pools/internal/boards"
)

type PropHandler struct {
	boards *boards.Service
	logger *slog.Logger
}

func NewPropHandler(svc *boards.Service, logger *slog.Logger) *PropHandler {
	return &PropHandler{boards: svc, logger: logger}
}

func (h *PropHandler) List(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	views, err := h.boards.ListProps(r.Context(), actorFrom(r), boardID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := make([]dto.PropResponse, 0, len(views))
	for i := range views {
		item := dto.NewPropResponse(&views[i].Prop)
		if views[i].MyPick != nil {
			item.MyPick = views[i].MyPick.String()
		}
		for j := range views[i].Picks {
			item.Picks = append(item.Picks, dto.NewPickResponse(&views[i].Picks[j]))
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PropHandler) Create(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}

	var req dto.CreatePropRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, req.Validate()) {
		return
	}

	prop, err := h.boards.CreateProp(r.Context(), actorFrom(r), boardID, req.Question, req.Options)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewPropResponse(prop))
}

func (h *PropHandler) Update(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}
	propID, ok := pathID(w, r, "propID")
	if !ok {
		return
	}

	var req dto.UpdatePropRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	prop, err := h.boards.UpdateProp(r.Context(), actorFrom(r), boardID, propID, boards.PropUpdate{
		Question: req.Question,
		Options:  req.Options,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPropResponse(prop))
}

func (h *PropHandler) Delete(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}
	propID, ok := pathID(w, r, "propID")
	if !ok {
		return
	}

	if err := h.boards.DeleteProp(r.Context(), actorFrom(r), boardID, propID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pick records or replaces the caller's pick on a prop.
func (h *PropHandler) Pick(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}
	propID, ok := pathID(w, r, "propID")
	if !ok {
		return
	}

	var req dto.PickRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	optionID, err := uuid.Parse(req.OptionID)
	if err != nil {
		validationFailed(w, map[string]string{"option_id": "Option ID must be a valid UUID"})
		return
	}

	pick, err := h.boards.SetPick(r.Context(), actorFrom(r), boardID, propID, optionID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPickResponse(pick))
}

func (h *PropHandler) ClearPick(w http.ResponseWriter, r *http.Request) {
	boardID, ok := pathID(w, r, "boardID")
	if !ok {
		return
	}
	propID, ok := pathID(w, r, "propID")
	if !ok {
		return
	}

	if err := h.boards.ClearPick(r.Context(), actorFrom(r), boardID, propID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
