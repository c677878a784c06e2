// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seatwise/seatwise/pkg/auth"
	"github.com/seatwise/seatwise/pkg/engine"
)

const maxRegistrationBody = 256 * 1024

// RegisterHandler handles POST /register requests (RFC 7591 Dynamic Client
// Registration). Server-side provenance flags are injected into the metadata
// before it reaches the engine; everything else, including the response
// document, passes through verbatim.
func (rt *Router) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	setRegistrationHeaders(w)

	metadata, ok := rt.readClientMetadata(w, r)
	if !ok {
		return
	}

	augmented, err := injectRegistrationFlags(metadata, map[string]any{
		"dynamically_registered": true,
		"registration_method":    "dynamic",
		"registration_timestamp": time.Now().Unix(),
	})
	if err != nil {
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_client_metadata", "client metadata must be a JSON object")
		return
	}

	result, err := rt.engine.RegisterClient(ctx, augmented)
	if err != nil {
		rt.logger.ErrorContext(ctx, "client registration failed",
			slog.String("error", err.Error()),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "client registration could not be processed")
		return
	}

	rt.writeClientResult(w, r, result, engine.ClientActionCreated, http.StatusCreated)
}

// ClientGetHandler handles GET /register/{clientID} requests (RFC 7592).
func (rt *Router) ClientGetHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	setRegistrationHeaders(w)

	registrationToken, ok := rt.requireRegistrationToken(w, r)
	if !ok {
		return
	}

	result, err := rt.engine.GetClient(ctx, chi.URLParam(r, "clientID"), registrationToken)
	if err != nil {
		rt.logger.ErrorContext(ctx, "client fetch failed",
			slog.String("error", err.Error()),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "client configuration could not be retrieved")
		return
	}

	rt.writeClientResult(w, r, result, engine.ClientActionOK, http.StatusOK)
}

// ClientUpdateHandler handles PUT /register/{clientID} requests (RFC 7592).
func (rt *Router) ClientUpdateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	setRegistrationHeaders(w)

	registrationToken, ok := rt.requireRegistrationToken(w, r)
	if !ok {
		return
	}

	metadata, ok := rt.readClientMetadata(w, r)
	if !ok {
		return
	}

	augmented, err := injectRegistrationFlags(metadata, map[string]any{
		"dynamically_registered":  true,
		"registration_method":     "dynamic",
		"last_modified_timestamp": time.Now().Unix(),
	})
	if err != nil {
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_client_metadata", "client metadata must be a JSON object")
		return
	}

	result, err := rt.engine.UpdateClient(ctx, chi.URLParam(r, "clientID"), registrationToken, augmented)
	if err != nil {
		rt.logger.ErrorContext(ctx, "client update failed",
			slog.String("error", err.Error()),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "client configuration could not be updated")
		return
	}

	rt.writeClientResult(w, r, result, engine.ClientActionUpdated, http.StatusOK)
}

// ClientDeleteHandler handles DELETE /register/{clientID} requests (RFC 7592).
func (rt *Router) ClientDeleteHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	setRegistrationHeaders(w)

	registrationToken, ok := rt.requireRegistrationToken(w, r)
	if !ok {
		return
	}

	result, err := rt.engine.DeleteClient(ctx, chi.URLParam(r, "clientID"), registrationToken)
	if err != nil {
		rt.logger.ErrorContext(ctx, "client deletion failed",
			slog.String("error", err.Error()),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "client could not be deleted")
		return
	}

	if result.Action == engine.ClientActionDeleted {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	rt.writeClientResult(w, r, result, engine.ClientActionDeleted, http.StatusNoContent)
}

// writeClientResult maps an engine client action to its HTTP status. The
// body is the engine's response document, untouched, so the wire format
// stays byte-for-byte whatever the engine emits.
func (rt *Router) writeClientResult(w http.ResponseWriter, r *http.Request, result *engine.ClientResult, success engine.ClientAction, successStatus int) {
	var status int
	switch result.Action {
	case success:
		status = successStatus
	case engine.ClientActionBadRequest:
		status = http.StatusBadRequest
	case engine.ClientActionUnauthorized:
		status = http.StatusUnauthorized
	case engine.ClientActionInternalServerError:
		status = http.StatusInternalServerError
	default:
		rt.logger.ErrorContext(r.Context(), "unexpected client registration action",
			slog.String("action", string(result.Action)),
		)
		rt.writeJSONError(w, http.StatusInternalServerError, "server_error", "unexpected client registration action")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if result.ResponseContent != "" {
		_, _ = w.Write([]byte(result.ResponseContent))
	}
}

// readClientMetadata enforces the application/json content type and reads
// the raw metadata document.
func (rt *Router) readClientMetadata(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_client_metadata", "Content-Type must be application/json")
		return nil, false
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRegistrationBody))
	if err != nil {
		rt.writeJSONError(w, http.StatusBadRequest, "invalid_client_metadata", "failed to read client metadata")
		return nil, false
	}

	return body, true
}

// requireRegistrationToken extracts the registration access token issued at
// registration time. Management calls without it are rejected locally.
func (rt *Router) requireRegistrationToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, ok := auth.ExtractBearerToken(r)
	if !ok {
		w.Header().Set("WWW-Authenticate", auth.Challenge{
			Realm:            rt.config.Issuer,
			Error:            "invalid_token",
			ErrorDescription: "registration access token is required",
		}.String())
		rt.writeJSONError(w, http.StatusUnauthorized, "invalid_token", "registration access token is required")
		return "", false
	}
	return token, true
}

// injectRegistrationFlags merges server-side flags into the client metadata
// document. The client's own fields win nothing here: flags overwrite any
// caller-supplied values of the same name.
func injectRegistrationFlags(metadata json.RawMessage, flags map[string]any) (json.RawMessage, error) {
	doc := make(map[string]any)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &doc); err != nil {
			return nil, err
		}
	}

	for key, value := range flags {
		doc[key] = value
	}

	return json.Marshal(doc)
}

func setRegistrationHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
