package tasks

import (
	"time"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeCleanup = "maintenance:cleanup"
)

// QueueMaintenance is the low-priority queue housekeeping runs on.
const QueueMaintenance = "maintenance"

// NewCleanupTask purges expired sessions and expired, unused invites. The
// payload is empty; the worker evaluates expiry against its own clock.
func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeCleanup, nil,
		asynq.Queue(QueueMaintenance),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	)
}
