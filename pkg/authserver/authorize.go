// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/seatwise/seatwise/pkg/engine"
)

const maxAuthorizeBody = 64 * 1024

// AuthorizeHandler handles GET and POST /authorize requests.
//
// The raw parameter string is forwarded to the decision engine unmodified.
// The engine performs all request validation (client, redirect_uri, PKCE,
// resource indicators) and the returned action dictates the response.
func (rt *Router) AuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	parameters, err := rawAuthorizeParameters(r)
	if err != nil {
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_request", "failed to read authorization request")
		return
	}

	result, err := rt.engine.Authorize(ctx, parameters)
	if err != nil {
		rt.logger.ErrorContext(ctx, "authorization call failed",
			slog.String("error", err.Error()),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "authorization request could not be processed")
		return
	}

	switch result.Action {
	case engine.AuthorizationActionInternalServerError:
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "authorization request could not be processed")

	case engine.AuthorizationActionBadRequest:
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_request", result.ResultMessage)

	case engine.AuthorizationActionLocation:
		http.Redirect(w, r, result.ResponseContent, http.StatusFound)

	case engine.AuthorizationActionForm:
		rt.writeForm(w, result.ResponseContent)

	case engine.AuthorizationActionNoInteraction:
		rt.writeJSONError(w, http.StatusBadRequest, "interaction_required", "end-user interaction is required but the request forbids it")

	case engine.AuthorizationActionInteraction:
		rt.beginInteraction(w, r, result)

	default:
		// Closed action set; an unknown value means the engine contract has
		// drifted and must fail loudly rather than be mapped to anything.
		rt.logger.ErrorContext(ctx, "unexpected authorization action",
			slog.String("action", string(result.Action)),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "unexpected authorization action")
	}
}

// beginInteraction persists the pending authorization in the session and
// sends the user to the consent page. The session save must complete before
// the redirect is written: the consent page load is the very next request
// and reads exactly this state.
func (rt *Router) beginInteraction(w http.ResponseWriter, r *http.Request, result *engine.AuthorizationResult) {
	ctx := r.Context()

	sess, ok := rt.sessionFromRequest(r)
	if !ok {
		rt.logger.ErrorContext(ctx, "session middleware not mounted on authorize route")
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "session unavailable")
		return
	}

	if err := sess.SetPending(result.Ticket, result.Client, result.Scopes); err != nil {
		rt.logger.ErrorContext(ctx, "engine returned interaction without a ticket",
			slog.String("error", err.Error()),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "authorization request could not be processed")
		return
	}

	if err := rt.sessions.Save(ctx, sess); err != nil {
		rt.logger.ErrorContext(ctx, "failed to persist pending authorization",
			slog.String("error", err.Error()),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "authorization request could not be processed")
		return
	}

	consentURL := "/authorize/consent?ticket=" + url.QueryEscape(result.Ticket)
	http.Redirect(w, r, consentURL, http.StatusFound)
}

// rawAuthorizeParameters extracts the url-encoded parameter string from the
// request: the query string on GET, the form body on POST.
func rawAuthorizeParameters(r *http.Request) (string, error) {
	if r.Method == http.MethodGet {
		return r.URL.RawQuery, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAuthorizeBody))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
