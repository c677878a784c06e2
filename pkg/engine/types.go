// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import "encoding/json"

// AuthorizationAction is the engine's verdict on an authorization request.
// The set is closed by contract; an unlisted value means the engine and this
// server disagree on the protocol version and must be treated as a hard
// failure, never ignored.
type AuthorizationAction string

// Authorization actions.
const (
	AuthorizationActionInternalServerError AuthorizationAction = "INTERNAL_SERVER_ERROR"
	AuthorizationActionBadRequest          AuthorizationAction = "BAD_REQUEST"
	AuthorizationActionLocation            AuthorizationAction = "LOCATION"
	AuthorizationActionForm                AuthorizationAction = "FORM"
	AuthorizationActionNoInteraction       AuthorizationAction = "NO_INTERACTION"
	AuthorizationActionInteraction         AuthorizationAction = "INTERACTION"
)

// TokenAction is the engine's verdict on a token request.
type TokenAction string

// Token actions.
const (
	TokenActionInternalServerError TokenAction = "INTERNAL_SERVER_ERROR"
	TokenActionInvalidClient       TokenAction = "INVALID_CLIENT"
	TokenActionBadRequest          TokenAction = "BAD_REQUEST"
	TokenActionPassword            TokenAction = "PASSWORD"
	TokenActionOK                  TokenAction = "OK"
	TokenActionTokenExchange       TokenAction = "TOKEN_EXCHANGE"
	TokenActionJWTBearer           TokenAction = "JWT_BEARER"
)

// IntrospectionAction is the engine's verdict on a bearer token.
type IntrospectionAction string

// Introspection actions.
const (
	IntrospectionActionInternalServerError IntrospectionAction = "INTERNAL_SERVER_ERROR"
	IntrospectionActionBadRequest          IntrospectionAction = "BAD_REQUEST"
	IntrospectionActionUnauthorized        IntrospectionAction = "UNAUTHORIZED"
	IntrospectionActionForbidden           IntrospectionAction = "FORBIDDEN"
	IntrospectionActionOK                  IntrospectionAction = "OK"
)

// ClientAction is the engine's verdict on a dynamic client registration
// management call (RFC 7591/7592).
type ClientAction string

// Client registration actions.
const (
	ClientActionInternalServerError ClientAction = "INTERNAL_SERVER_ERROR"
	ClientActionBadRequest          ClientAction = "BAD_REQUEST"
	ClientActionUnauthorized        ClientAction = "UNAUTHORIZED"
	ClientActionCreated             ClientAction = "CREATED"
	ClientActionOK                  ClientAction = "OK"
	ClientActionUpdated             ClientAction = "UPDATED"
	ClientActionDeleted             ClientAction = "DELETED"
)

// ClientSummary is a read-only snapshot of the client behind a pending
// authorization request, rendered verbatim on the consent page.
type ClientSummary struct {
	ClientID      string `json:"clientId"`
	ClientIDAlias string `json:"clientIdAlias,omitempty"`
	ClientName    string `json:"clientName,omitempty"`
}

// Scope describes one requested scope. The engine returns scopes in display
// order; consumers must preserve that order.
type Scope struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	DefaultEntry bool   `json:"defaultEntry,omitempty"`
}

// AuthorizationResult is the engine's response to an authorize, issue or
// fail call. ResponseContent is an opaque payload (a redirect URL, an
// auto-submit HTML form or an error document depending on Action) and must
// be passed through byte for byte.
type AuthorizationResult struct {
	Action          AuthorizationAction `json:"action"`
	Ticket          string              `json:"ticket,omitempty"`
	Client          *ClientSummary      `json:"client,omitempty"`
	Scopes          []Scope             `json:"scopes,omitempty"`
	ResponseContent string              `json:"responseContent,omitempty"`
	ResultMessage   string              `json:"resultMessage,omitempty"`
}

// TokenResult is the engine's response to a token request.
type TokenResult struct {
	Action          TokenAction `json:"action"`
	ResponseContent string      `json:"responseContent,omitempty"`
	ResultMessage   string      `json:"resultMessage,omitempty"`
}

// IntrospectionResult is the engine's response to a token introspection.
// It is consumed exactly once per protected request and never cached, since
// a token may be revoked between calls.
type IntrospectionResult struct {
	Action        IntrospectionAction `json:"action"`
	Subject       string              `json:"subject,omitempty"`
	ClientID      string              `json:"clientId,omitempty"`
	Scopes        []string            `json:"scopes,omitempty"`
	Resources     []string            `json:"resources,omitempty"`
	ExpiresAt     int64               `json:"expiresAt,omitempty"`
	ResultMessage string              `json:"resultMessage,omitempty"`
}

// ClientResult is the engine's response to a client registration management
// call. ResponseContent carries the engine-rendered client document and is
// never re-serialized locally.
type ClientResult struct {
	Action          ClientAction `json:"action"`
	ResponseContent string       `json:"responseContent,omitempty"`
	ResultMessage   string       `json:"resultMessage,omitempty"`
}

// Request payloads for the engine RPC surface.

type authorizationRequest struct {
	Parameters string `json:"parameters"`
}

type authorizationIssueRequest struct {
	Ticket  string `json:"ticket"`
	Subject string `json:"subject"`
}

type authorizationFailRequest struct {
	Ticket string `json:"ticket"`
	Reason string `json:"reason"`
}

type tokenRequest struct {
	Parameters   string `json:"parameters"`
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

type introspectionRequest struct {
	Token    string   `json:"token"`
	Scopes   []string `json:"scopes,omitempty"`
	Resource string   `json:"resource,omitempty"`
}

type clientRegisterRequest struct {
	Metadata json.RawMessage `json:"metadata"`
}

type clientManagementRequest struct {
	ClientID          string          `json:"clientId"`
	RegistrationToken string          `json:"registrationToken"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
}
