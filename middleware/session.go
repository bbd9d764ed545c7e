// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/doclabel/auth"
	"github.com/danielhkuo/doclabel/models"
	"github.com/danielhkuo/doclabel/store"
)

// SessionCookie is the name of the cookie holding the session token.
const SessionCookie = "sessionid"

// MsgNotAuthenticated is returned to anonymous callers of protected routes.
const MsgNotAuthenticated = "Authentication credentials were not provided."

// UserGetter loads the user a session token refers to.
type UserGetter interface {
	Get(ctx context.Context, id int64) (*models.User, error)
}

type userKey struct{}

// WithSession resolves the session token of the request, if any, and
// stores the user in the request context. Missing, expired or invalid
// tokens leave the request anonymous.
func WithSession(sessions *auth.Sessions, users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := sessions.Verify(token)
			if err != nil {
				slog.Debug("ignoring session token", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			id, err := claims.UserID()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.Get(r.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("failed to load session user", "user_id", id, "error", err)
				ErrorResponse(w, http.StatusInternalServerError, "Failed to load session")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// SessionToken returns the bearer token of the request, falling back to
// the session cookie.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey{}).(*models.User)
	return user, ok && user != nil
}

// RequireUser returns the signed-in user, or writes a 403 and returns
// false for anonymous requests.
func RequireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		ErrorResponse(w, http.StatusForbidden, MsgNotAuthenticated)
		return nil, false
	}
	return user, true
}
