package api

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/oglasnik/internal/auth"
	"github.com/erazemk/oglasnik/internal/market"
	"github.com/erazemk/oglasnik/internal/ratelimit"
	"github.com/erazemk/oglasnik/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Market  *market.Service
	Secret  string
	TTL     time.Duration
	Limiter ratelimit.Limiter
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	if h.Limiter != nil {
		ok, wait, err := h.Limiter.Allow(r.Context(), strings.ToLower(req.Username))
		if err != nil {
			slog.Warn("login rate limiter unavailable", "error", err)
		} else if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			jsonError(w, http.StatusTooManyRequests, "too many login attempts")
			return
		}
	}

	user, err := h.Market.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, market.ErrInvalidCredentials) {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		serviceError(w, r, err)
		return
	}

	token, claims, err := auth.Issue(h.Secret, user, h.TTL)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", user.Username, "role", user.Role, "via", "api")
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.RevokeSession(r.Context(), h.Market.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		serviceError(w, r, err)
		return
	}

	slog.Info("user logged out", "user", claims.Username, "via", "api")
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.Market.ChangePassword(r.Context(), actor(r), market.PasswordForm{
		Current:        req.CurrentPassword,
		New:            req.NewPassword,
		RepeatPassword: req.NewPassword,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
