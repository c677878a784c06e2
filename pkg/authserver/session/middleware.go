// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CookieName is the name of the session cookie.
const CookieName = "seatwise_session"

type sessionContextKey struct{}

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	// Secure marks the cookie as HTTPS-only. Enable everywhere except local
	// development.
	Secure bool

	// MaxAge for the cookie; DefaultTTL when zero.
	MaxAge time.Duration
}

// FromContext returns the session attached by Middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*Session)
	return sess, ok
}

// Middleware loads the caller's session from the cookie, creating a fresh
// one when the cookie is missing or stale, and attaches it to the request
// context. It never persists the session itself: handlers save explicitly
// once they have something worth keeping, before any response that a
// follow-up request depends on.
func Middleware(store Store, cfg CookieConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultTTL
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var sess *Session
			if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
				loaded, err := store.Load(ctx, cookie.Value)
				switch {
				case err == nil:
					sess = loaded
				case errors.Is(err, ErrNotFound):
					// Expired or unknown id: fall through to a fresh session.
				default:
					logger.ErrorContext(ctx, "failed to load session",
						slog.String("error", err.Error()),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
			}

			if sess == nil {
				sess = &Session{
					ID:        uuid.NewString(),
					CreatedAt: time.Now(),
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    sess.ID,
					Path:     "/",
					MaxAge:   int(maxAge.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionContextKey{}, sess)))
		})
	}
}
