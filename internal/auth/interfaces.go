package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/database/models"
)

// Authenticator defines the interface for user authentication operations.
type Authenticator interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResponse, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	Logout(ctx context.Context, tokenID string) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionValidator resolves a bearer token into claims backed by a live session.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*Claims, error)
}

// Compile-time interface satisfaction checks
var (
	_ Authenticator    = (*Service)(nil)
	_ SessionValidator = (*Service)(nil)
)
