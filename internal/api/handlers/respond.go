package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/api/dto"
	"github.com/hugh/go-pools/internal/api/middleware"
	"github.com/hugh/go-pools/internal/boards"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto a status code. Unexpected errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var domainErr *boards.Error
	if !errors.As(err, &domainErr) {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, boards.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, boards.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, boards.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, boards.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, boards.ErrConflict):
		status = http.StatusConflict
	}
	writeJSON(w, status, dto.ErrorResponse{Error: domainErr.Message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

func validationFailed(w http.ResponseWriter, errs map[string]string) bool {
	if len(errs) == 0 {
		return false
	}
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
	return true
}

// pathID parses a UUID route parameter, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func actorFrom(r *http.Request) boards.Actor {
	ctx := r.Context()
	return boards.Actor{
		UserID:      middleware.GetUserID(ctx),
		Email:       middleware.GetUserEmail(ctx),
		GlobalAdmin: middleware.IsGlobalAdmin(ctx),
	}
}
