package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-pools/internal/api/handlers"
	"github.com/hugh/go-pools/internal/tasks"
	"github.com/hugh/go-pools/internal/testutil"
	"github.com/hugh/go-pools/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	enqueued []*asynq.Task
	err      error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.enqueued = append(q.enqueued, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: tasks.QueueMaintenance, Type: task.Type()}, nil
}

func TestMaintenanceHandler_TriggerCleanup(t *testing.T) {
	t.Run("enqueues cleanup", func(t *testing.T) {
		queue := &fakeQueue{}
		handler := handlers.NewMaintenanceHandler(queue, util.DiscardLogger())

		rr := httptest.NewRecorder()
		handler.TriggerCleanup(rr, httptest.NewRequest("POST", "/api/v1/admin/cleanup", nil))

		testutil.AssertStatus(t, rr, http.StatusAccepted)
		require.Len(t, queue.enqueued, 1)
		assert.Equal(t, tasks.TypeCleanup, queue.enqueued[0].Type())

		var resp handlers.EnqueuedResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "task-1", resp.TaskID)
		assert.Equal(t, tasks.QueueMaintenance, resp.Queue)
	})

	t.Run("queue error", func(t *testing.T) {
		handler := handlers.NewMaintenanceHandler(&fakeQueue{err: errors.New("redis down")}, util.DiscardLogger())

		rr := httptest.NewRecorder()
		handler.TriggerCleanup(rr, httptest.NewRequest("POST", "/api/v1/admin/cleanup", nil))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("no queue configured", func(t *testing.T) {
		handler := handlers.NewMaintenanceHandler(nil, util.DiscardLogger())

		rr := httptest.NewRecorder()
		handler.TriggerCleanup(rr, httptest.NewRequest("POST", "/api/v1/admin/cleanup", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
