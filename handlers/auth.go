// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/doclabel/auth"
	"github.com/danielhkuo/doclabel/cliparse"
	"github.com/danielhkuo/doclabel/middleware"
	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/store"
)

type AuthHandler struct {
	cfg      cliparse.Config
	store    *store.Store
	sessions *auth.Sessions
}

func NewAuthHandler(db *sql.DB, cfg cliparse.Config) *AuthHandler {
	return &AuthHandler{
		cfg:      cfg,
		store:    store.New(db),
		sessions: auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL),
	}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Username == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.store.Users.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unable to log in with provided credentials.")
		return
	}
	if err != nil {
		slog.Error("failed to authenticate", "username", req.Username, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	token, expires, err := h.sessions.Issue(user.ID, user.Username)
	if err != nil {
		slog.Error("failed to issue session", "user_id", user.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("user logged in", "user_id", user.ID)

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      *user,
	})
}

// Logout handles POST /auth/logout. Tokens are stateless, so this only
// clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, user)
}

// CreateUser handles POST /users (superusers only)
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.RequireUser(w, r)
	if !ok {
		return
	}
	if !caller.IsSuperuser {
		middleware.ErrorResponse(w, http.StatusForbidden, msgForbidden)
		return
	}

	var req models.CreateUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := h.store.Users.Create(r.Context(), req.Username, req.Password, req.IsSuperuser)
	if err != nil {
		middleware.StoreError(w, err, "Failed to create user")
		return
	}

	slog.Info("user created", "user_id", user.ID, "by", caller.ID)
	middleware.JSONResponse(w, http.StatusCreated, user)
}

// ListUsers handles GET /users
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.RequireUser(w, r); !ok {
		return
	}
	users, err := h.store.Users.List(r.Context())
	if err != nil {
		middleware.StoreError(w, err, "Failed to list users")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, users)
}

// ListRoles handles GET /roles
func (h *AuthHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.RequireUser(w, r); !ok {
		return
	}
	roles, err := h.store.Roles.List(r.Context())
	if err != nil {
		middleware.StoreError(w, err, "Failed to list roles")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, roles)
}
