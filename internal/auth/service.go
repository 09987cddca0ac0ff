package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-pools/internal/api/validation"
	"github.com/hugh/go-pools/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrSessionNotFound    = errors.New("session not found")
)

type Service struct {
	db  *gorm.DB
	jwt *JWTService
}

func NewService(db *gorm.DB, jwt *JWTService) *Service {
	return &Service{db: db, jwt: jwt}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	email := validation.NormalizeEmail(input.Email)

	// Check if user exists
	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         models.RoleUser,
		IsActive:     true,
	}

	var resp *AuthResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUserExists
			}
			return err
		}
		var err error
		resp, err = s.openSession(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ?", validation.NormalizeEmail(input.Email)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(s.db.WithContext(ctx), &user)
}

// openSession signs a token and stores its session row using db.
func (s *Service) openSession(db *gorm.DB, user *models.User) (*AuthResponse, error) {
	token, claims, err := s.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	session := models.Session{
		UserID:    user.ID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &AuthResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	}, nil
}

// Logout removes the session so the token stops being accepted.
func (s *Service) Logout(ctx context.Context, tokenID string) error {
	return s.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Delete(&models.Session{}).Error
}

// ValidateSession checks the token signature, the backing session and the
// user's current state.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("token_id = ? AND user_id = ? AND expires_at > ?", claims.ID, claims.UserID, time.Now()).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.User == nil {
		return nil, ErrSessionNotFound
	}
	if !session.User.IsActive {
		return nil, ErrInactiveUser
	}

	// Role and email may have changed since the token was signed
	claims.Role = session.User.Role
	claims.Email = session.User.Email
	return claims, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CleanupExpiredSessions deletes sessions that expired before now.
func (s *Service) CleanupExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.Session{})
	return result.RowsAffected, result.Error
}
