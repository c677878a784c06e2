// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/seatwise/seatwise/pkg/engine"
)

const maxTokenBody = 64 * 1024

// TokenHandler handles POST /token requests.
//
// Client credentials are taken from the Basic Authorization header first,
// falling back to the client_id/client_secret form fields. The raw form body
// is forwarded to the engine untouched, and the successful token document is
// passed through verbatim.
func (rt *Router) TokenHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Token responses must never be cached (RFC 6749 §5.1).
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxTokenBody))
	if err != nil {
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_request", "failed to read token request")
		return
	}
	parameters := string(body)

	clientID, clientSecret := extractClientCredentials(r, parameters)

	result, err := rt.engine.Token(ctx, parameters, clientID, clientSecret)
	if err != nil {
		rt.logger.ErrorContext(ctx, "token call failed",
			slog.String("error", err.Error()),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "token request could not be processed")
		return
	}

	switch result.Action {
	case engine.TokenActionOK, engine.TokenActionTokenExchange, engine.TokenActionJWTBearer:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(result.ResponseContent))

	case engine.TokenActionInvalidClient:
		rt.writeJSONError(w, http.StatusUnauthorized, "invalid_client", result.ResultMessage)

	case engine.TokenActionBadRequest:
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_request", result.ResultMessage)

	case engine.TokenActionPassword:
		// The resource owner password grant is intentionally not supported.
		rt.writeJSONError(w, http.StatusBadRequest, "unsupported_grant_type", "the password grant is not supported")

	case engine.TokenActionInternalServerError:
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "token request could not be processed")

	default:
		rt.logger.ErrorContext(ctx, "unexpected token action",
			slog.String("action", string(result.Action)),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "unexpected token action")
	}
}

// extractClientCredentials resolves the client's credentials with the
// precedence required by RFC 6749 §2.3.1: the Basic Authorization header
// wins over form parameters.
func extractClientCredentials(r *http.Request, parameters string) (clientID, clientSecret string) {
	if id, secret, ok := basicCredentials(r.Header.Get("Authorization")); ok {
		return id, secret
	}

	form, err := url.ParseQuery(parameters)
	if err != nil {
		return "", ""
	}
	return form.Get("client_id"), form.Get("client_secret")
}

// basicCredentials decodes a Basic Authorization header value. The decoded
// value is split on the first colon: client ids cannot contain one, secrets
// can.
func basicCredentials(header string) (clientID, clientSecret string, ok bool) {
	const prefix = "Basic "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", false
	}

	id, secret, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}
	return id, secret, true
}
