package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// SessionPurger removes sessions that expired before now.
type SessionPurger interface {
	CleanupExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// InvitePurger removes unused invites that expired before now.
type InvitePurger interface {
	PurgeExpiredInvites(ctx context.Context, now time.Time) (int64, error)
}

type Handler struct {
	sessions SessionPurger
	invites  InvitePurger
	logger   *slog.Logger
	now      func() time.Time
}

func NewHandler(sessions SessionPurger, invites InvitePurger, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		invites:  invites,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeCleanup, h.HandleCleanup)
}

func (h *Handler) HandleCleanup(ctx context.Context, t *asynq.Task) error {
	now := h.now()

	sessions, err := h.sessions.CleanupExpiredSessions(ctx, now)
	if err != nil {
		return fmt.Errorf("purging sessions: %w", err)
	}

	invites, err := h.invites.PurgeExpiredInvites(ctx, now)
	if err != nil {
		return fmt.Errorf("purging invites: %w", err)
	}

	h.logger.Info("cleanup completed",
		"sessions_removed", sessions,
		"invites_removed", invites,
	)
	return nil
}
