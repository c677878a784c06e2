// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/seatwise/seatwise/pkg/engine"
)

// consentPageData feeds the consent template. Client and scope values come
// from the engine's authorize response and are rendered verbatim.
type consentPageData struct {
	Ticket     string
	ClientName string
	ClientID   string
	Scopes     []engine.Scope
	Subject    string
}

// ConsentHandler handles GET /authorize/consent requests.
//
// The ticket query parameter must match the session's pending ticket, and
// the user must be authenticated; otherwise the request is rejected or
// diverted to login with the consent URL as the return target.
func (rt *Router) ConsentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := rt.sessionFromRequest(r)
	if !ok {
		rt.logger.ErrorContext(ctx, "session middleware not mounted on consent route")
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "session unavailable")
		return
	}

	ticket := r.URL.Query().Get("ticket")
	if ticket == "" || !sess.HasPending() || ticket != sess.PendingTicket {
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_request", "no pending authorization matches this ticket")
		return
	}

	if !sess.Authenticated() {
		returnTo := "/authorize/consent?ticket=" + url.QueryEscape(ticket)
		http.Redirect(w, r, "/login?return_to="+url.QueryEscape(returnTo), http.StatusFound)
		return
	}

	data := consentPageData{
		Ticket:  ticket,
		Subject: sess.Subject,
		Scopes:  sess.PendingScopes,
	}
	if sess.PendingClient != nil {
		data.ClientID = sess.PendingClient.ClientID
		data.ClientName = sess.PendingClient.ClientName
		if data.ClientName == "" {
			data.ClientName = sess.PendingClient.ClientID
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rt.templates.ExecuteTemplate(w, "consent.html", data); err != nil {
		rt.logger.ErrorContext(ctx, "failed to render consent page",
			slog.String("error", err.Error()),
		)
	}
}

// DecisionHandler handles POST /authorize/decision requests, resolving a
// pending consent with the user's approve/deny choice.
//
// All local validation happens before any engine call: a mismatched or
// replayed ticket must never reach issue/fail. Whatever the engine outcome,
// the pending state is cleared and the session saved so a ticket can never
// get stuck in the session.
func (rt *Router) DecisionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := rt.sessionFromRequest(r)
	if !ok {
		rt.logger.ErrorContext(ctx, "session middleware not mounted on decision route")
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "session unavailable")
		return
	}

	if err := r.ParseForm(); err != nil {
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	ticket := r.PostFormValue("ticket")
	authorized := r.PostFormValue("authorized")

	switch {
	case ticket == "":
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_request", "ticket is required")
		return
	case authorized != "true" && authorized != "false":
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_request", "authorized must be \"true\" or \"false\"")
		return
	case !sess.Authenticated():
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_request", "no authenticated user on this session")
		return
	case !sess.HasPending() || ticket != sess.PendingTicket:
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_request", "no pending authorization matches this ticket")
		return
	}

	var result *engine.AuthorizationResult
	var engineErr error
	if authorized == "true" {
		result, engineErr = rt.engine.AuthorizeIssue(ctx, ticket, sess.Subject)
	} else {
		result, engineErr = rt.engine.AuthorizeFail(ctx, ticket, "DENIED")
	}

	// The ticket is single-use. Clear it even when the engine call failed;
	// a stuck pending ticket would wedge the session.
	sess.ClearPending()
	if err := rt.sessions.Save(ctx, sess); err != nil {
		rt.logger.ErrorContext(ctx, "failed to clear pending authorization",
			slog.String("error", err.Error()),
		)
	}

	if engineErr != nil {
		rt.logger.ErrorContext(ctx, "authorization finalization failed",
			slog.String("error", engineErr.Error()),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "authorization could not be finalized")
		return
	}

	switch result.Action {
	case engine.AuthorizationActionLocation:
		http.Redirect(w, r, result.ResponseContent, http.StatusFound)

	case engine.AuthorizationActionForm:
		rt.writeForm(w, result.ResponseContent)

	case engine.AuthorizationActionInternalServerError:
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "authorization could not be finalized")

	case engine.AuthorizationActionBadRequest:
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_request", result.ResultMessage)

	default:
		rt.logger.ErrorContext(ctx, "unexpected finalization action",
			slog.String("action", string(result.Action)),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "unexpected authorization action")
	}
}
