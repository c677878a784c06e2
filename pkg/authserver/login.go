// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// AuthenticationResult is the explicit outcome of an authentication attempt.
// Exactly one of Subject or FailureReason is set.
type AuthenticationResult struct {
	Subject       string
	FailureReason string
}

// Authenticated reports whether the attempt succeeded.
func (r AuthenticationResult) Authenticated() bool {
	return r.Subject != ""
}

// Authenticator verifies end-user credentials. Production deployments plug
// in their identity provider here; the flow only depends on the result value.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) AuthenticationResult
}

// StaticAuthenticator authenticates against a fixed username/password table.
// Intended for development and tests.
type StaticAuthenticator struct {
	users map[string]string
}

// NewStaticAuthenticator creates a StaticAuthenticator from a
// username→password map.
func NewStaticAuthenticator(users map[string]string) *StaticAuthenticator {
	copied := make(map[string]string, len(users))
	for name, password := range users {
		copied[name] = password
	}
	return &StaticAuthenticator{users: copied}
}

// Authenticate implements Authenticator.
func (a *StaticAuthenticator) Authenticate(_ context.Context, username, password string) AuthenticationResult {
	want, ok := a.users[username]
	if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(password)) != 1 {
		return AuthenticationResult{FailureReason: "invalid username or password"}
	}
	return AuthenticationResult{Subject: username}
}

type loginPageData struct {
	ReturnTo string
	Error    string
}

// LoginPageHandler handles GET /login requests.
func (rt *Router) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	rt.renderLogin(w, r, loginPageData{ReturnTo: r.URL.Query().Get("return_to")}, http.StatusOK)
}

// LoginSubmitHandler handles POST /login requests.
//
// On success the subject is written into the session and saved before the
// redirect; any pending authorization already in the session is preserved so
// the consent flow can resume where it left off.
func (rt *Router) LoginSubmitHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := rt.sessionFromRequest(r)
	if !ok {
		rt.logger.ErrorContext(ctx, "session middleware not mounted on login route")
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "session unavailable")
		return
	}

	if err := r.ParseForm(); err != nil {
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	returnTo := r.PostFormValue("return_to")

	result := rt.auth.Authenticate(ctx, r.PostFormValue("username"), r.PostFormValue("password"))
	if !result.Authenticated() {
		rt.renderLogin(w, r, loginPageData{ReturnTo: returnTo, Error: result.FailureReason}, http.StatusUnauthorized)
		return
	}

	sess.Subject = result.Subject
	if err := rt.sessions.Save(ctx, sess); err != nil {
		rt.logger.ErrorContext(ctx, "failed to persist authenticated session",
			slog.String("error", err.Error()),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "login could not be completed")
		return
	}

	http.Redirect(w, r, safeReturnTarget(returnTo), http.StatusFound)
}

func (rt *Router) renderLogin(w http.ResponseWriter, r *http.Request, data loginPageData, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rt.templates.ExecuteTemplate(w, "login.html", data); err != nil {
		rt.logger.ErrorContext(r.Context(), "failed to render login page",
			slog.String("error", err.Error()),
		)
	}
}

// safeReturnTarget confines post-login redirects to local paths so the login
// form cannot be used as an open redirector.
func safeReturnTarget(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
