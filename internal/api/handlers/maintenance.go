package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-pools/internal/api/dto"
	"github.com/hugh/go-pools/internal/tasks"
)

// Enqueuer is the subset of *asynq.Client used to schedule background work.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type MaintenanceHandler struct {
	queue  Enqueuer
	logger *slog.Logger
}

func NewMaintenanceHandler(queue Enqueuer, logger *slog.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{queue: queue, logger: logger}
}

type EnqueuedResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

// TriggerCleanup handles POST /api/v1/admin/cleanup
func (h *MaintenanceHandler) TriggerCleanup(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Task queue unavailable"})
		return
	}

	info, err := h.queue.EnqueueContext(r.Context(), tasks.NewCleanupTask())
	if err != nil {
		h.logger.Error("failed to enqueue cleanup", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to enqueue cleanup"})
		return
	}

	writeJSON(w, http.StatusAccepted, EnqueuedResponse{TaskID: info.ID, Queue: info.Queue})
}
