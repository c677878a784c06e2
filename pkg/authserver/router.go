// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package authserver provides the HTTP surface of the authorization server:
// the authorization request dispatcher, the session-bound consent flow, the
// token endpoint, dynamic client registration and the discovery documents.
//
// The server makes no authorization decisions of its own. Every request is
// forwarded to the remote decision engine, whose response carries an action
// code that fully determines the HTTP behavior produced here.
package authserver

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seatwise/seatwise/pkg/authserver/session"
	"github.com/seatwise/seatwise/pkg/engine"
)

//go:embed templates/*.html
var templateFS embed.FS

// Engine is the slice of the decision engine the authorization server needs.
type Engine interface {
	Authorize(ctx context.Context, parameters string) (*engine.AuthorizationResult, error)
	AuthorizeIssue(ctx context.Context, ticket, subject string) (*engine.AuthorizationResult, error)
	AuthorizeFail(ctx context.Context, ticket, reason string) (*engine.AuthorizationResult, error)
	Token(ctx context.Context, parameters, clientID, clientSecret string) (*engine.TokenResult, error)
	RegisterClient(ctx context.Context, metadata json.RawMessage) (*engine.ClientResult, error)
	GetClient(ctx context.Context, clientID, registrationToken string) (*engine.ClientResult, error)
	UpdateClient(ctx context.Context, clientID, registrationToken string, metadata json.RawMessage) (*engine.ClientResult, error)
	DeleteClient(ctx context.Context, clientID, registrationToken string) (*engine.ClientResult, error)
}

// Config holds the authorization server settings.
type Config struct {
	// Issuer is the public base URL of this server, without trailing slash.
	Issuer string

	// ScopesSupported is advertised in the authorization server metadata.
	ScopesSupported []string
}

// Router provides the HTTP handlers for all authorization server endpoints.
type Router struct {
	logger    *slog.Logger
	engine    Engine
	sessions  session.Store
	auth      Authenticator
	config    Config
	templates *template.Template
}

// RouterOption configures a Router instance.
type RouterOption func(*Router)

// WithLogger sets the router's logger.
func WithLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewRouter creates a Router with the given dependencies.
func NewRouter(eng Engine, sessions session.Store, auth Authenticator, cfg Config, opts ...RouterOption) *Router {
	r := &Router{
		logger:    slog.Default(),
		engine:    eng,
		sessions:  sessions,
		auth:      auth,
		config:    cfg,
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Routes registers every authorization server endpoint on the given chi
// router. The caller is responsible for wrapping the router in the session
// middleware; all consent-flow handlers expect a session in the context.
func (rt *Router) Routes(r chi.Router) {
	r.Get("/authorize", rt.AuthorizeHandler)
	r.Post("/authorize", rt.AuthorizeHandler)
	r.Get("/authorize/consent", rt.ConsentHandler)
	r.Post("/authorize/decision", rt.DecisionHandler)

	r.Get("/login", rt.LoginPageHandler)
	r.Post("/login", rt.LoginSubmitHandler)

	r.Post("/token", rt.TokenHandler)

	r.Post("/register", rt.RegisterHandler)
	r.Get("/register/{clientID}", rt.ClientGetHandler)
	r.Put("/register/{clientID}", rt.ClientUpdateHandler)
	r.Delete("/register/{clientID}", rt.ClientDeleteHandler)

	r.Get("/.well-known/oauth-authorization-server", rt.MetadataHandler)
}

// writeJSONError writes the standard {error, error_description} document.
func (rt *Router) writeJSONError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}

// writeForm serves an engine-rendered HTML document (e.g. an auto-submit
// form for response_mode=form_post) exactly as received.
func (rt *Router) writeForm(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

// sessionFromRequest fetches the session placed in the context by the
// session middleware. A missing session means the middleware is not mounted,
// which is a wiring bug, not a client error.
func (rt *Router) sessionFromRequest(r *http.Request) (*session.Session, bool) {
	return session.FromContext(r.Context())
}
