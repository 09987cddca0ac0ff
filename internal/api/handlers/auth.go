package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hugh/go-pools/internal/api/dto"
	"github.com/hugh/go-pools/internal/api/middleware"
	"github.com/hugh/go-pools/internal/api/validation"
	"github.com/hugh/go-pools/internal/auth"
)

type AuthHandler struct {
	authService  *auth.Service
	logger       *slog.Logger
	secureCookie bool
}

func NewAuthHandler(authService *auth.Service, logger *slog.Logger, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger, secureCookie: secureCookie}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, req.Validate()) {
		return
	}

	resp, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: validation.CleanText(req.FirstName, validation.MaxNameLength),
		LastName:  validation.CleanText(req.LastName, validation.MaxNameLength),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "User already exists"})
		default:
			h.logger.Error("registration failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Registration failed"})
		}
		return
	}

	h.setSessionCookie(w, resp.Token, resp.ExpiresAt)
	writeJSON(w, http.StatusCreated, dto.AuthResponse{
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
		User:      dto.NewUserDTO(resp.User),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, req.Validate()) {
		return
	}

	resp, err := h.authService.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid credentials"})
		case errors.Is(err, auth.ErrInactiveUser):
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Account is inactive"})
		default:
			h.logger.Error("login failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Login failed"})
		}
		return
	}

	h.setSessionCookie(w, resp.Token, resp.ExpiresAt)
	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
		User:      dto.NewUserDTO(resp.User),
	})
}

// Logout ends the caller's session if the request carries a valid token and
// always clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromRequest(r); token != "" {
		if claims, err := h.authService.ValidateSession(r.Context(), token); err == nil {
			if err := h.authService.Logout(r.Context(), claims.ID); err != nil {
				h.logger.Error("logout failed", "error", err, "user_id", claims.UserID)
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		MaxAge:   -1,
	})
	middleware.ClearCSRFCookie(w, r)

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Logged out"})
}

// Me handles GET /api/v1/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
			return
		}
		h.logger.Error("loading user failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal error"})
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUserDTO(user))
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
	})
}
