// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/seatwise/seatwise/pkg/engine"
)

// EngineClient is the full decision engine surface the server consumes.
// *engine.Client satisfies it.
type EngineClient interface {
	Authorize(ctx context.Context, parameters string) (*engine.AuthorizationResult, error)
	AuthorizeIssue(ctx context.Context, ticket, subject string) (*engine.AuthorizationResult, error)
	AuthorizeFail(ctx context.Context, ticket, reason string) (*engine.AuthorizationResult, error)
	Token(ctx context.Context, parameters, clientID, clientSecret string) (*engine.TokenResult, error)
	Introspect(ctx context.Context, token string, requiredScopes []string, resource string) (*engine.IntrospectionResult, error)
	RegisterClient(ctx context.Context, metadata json.RawMessage) (*engine.ClientResult, error)
	GetClient(ctx context.Context, clientID, registrationToken string) (*engine.ClientResult, error)
	UpdateClient(ctx context.Context, clientID, registrationToken string, metadata json.RawMessage) (*engine.ClientResult, error)
	DeleteClient(ctx context.Context, clientID, registrationToken string) (*engine.ClientResult, error)
}

// InstrumentedEngine wraps an EngineClient and records one observation per
// call: the operation name, the action code the engine answered with and the
// call duration. Failed transports count under the "error" action.
type InstrumentedEngine struct {
	inner   EngineClient
	metrics *Metrics
}

// InstrumentEngine wraps the given client.
func InstrumentEngine(inner EngineClient, metrics *Metrics) *InstrumentedEngine {
	return &InstrumentedEngine{inner: inner, metrics: metrics}
}

func (e *InstrumentedEngine) observe(operation string, start time.Time, action string, err error) {
	if err != nil {
		action = "error"
	}
	e.metrics.ObserveEngineCall(operation, action, time.Since(start))
}

// Authorize implements EngineClient.
func (e *InstrumentedEngine) Authorize(ctx context.Context, parameters string) (*engine.AuthorizationResult, error) {
	start := time.Now()
	result, err := e.inner.Authorize(ctx, parameters)
	e.observe("authorization", start, authorizationAction(result), err)
	return result, err
}

// AuthorizeIssue implements EngineClient.
func (e *InstrumentedEngine) AuthorizeIssue(ctx context.Context, ticket, subject string) (*engine.AuthorizationResult, error) {
	start := time.Now()
	result, err := e.inner.AuthorizeIssue(ctx, ticket, subject)
	e.observe("authorization_issue", start, authorizationAction(result), err)
	return result, err
}

// AuthorizeFail implements EngineClient.
func (e *InstrumentedEngine) AuthorizeFail(ctx context.Context, ticket, reason string) (*engine.AuthorizationResult, error) {
	start := time.Now()
	result, err := e.inner.AuthorizeFail(ctx, ticket, reason)
	e.observe("authorization_fail", start, authorizationAction(result), err)
	return result, err
}

// Token implements EngineClient.
func (e *InstrumentedEngine) Token(ctx context.Context, parameters, clientID, clientSecret string) (*engine.TokenResult, error) {
	start := time.Now()
	result, err := e.inner.Token(ctx, parameters, clientID, clientSecret)
	action := ""
	if result != nil {
		action = string(result.Action)
	}
	e.observe("token", start, action, err)
	return result, err
}

// Introspect implements EngineClient.
func (e *InstrumentedEngine) Introspect(ctx context.Context, token string, requiredScopes []string, resource string) (*engine.IntrospectionResult, error) {
	start := time.Now()
	result, err := e.inner.Introspect(ctx, token, requiredScopes, resource)
	action := ""
	if result != nil {
		action = string(result.Action)
	}
	e.observe("introspection", start, action, err)
	return result, err
}

// RegisterClient implements EngineClient.
func (e *InstrumentedEngine) RegisterClient(ctx context.Context, metadata json.RawMessage) (*engine.ClientResult, error) {
	start := time.Now()
	result, err := e.inner.RegisterClient(ctx, metadata)
	e.observe("client_register", start, clientAction(result), err)
	return result, err
}

// GetClient implements EngineClient.
func (e *InstrumentedEngine) GetClient(ctx context.Context, clientID, registrationToken string) (*engine.ClientResult, error) {
	start := time.Now()
	result, err := e.inner.GetClient(ctx, clientID, registrationToken)
	e.observe("client_get", start, clientAction(result), err)
	return result, err
}

// UpdateClient implements EngineClient.
func (e *InstrumentedEngine) UpdateClient(ctx context.Context, clientID, registrationToken string, metadata json.RawMessage) (*engine.ClientResult, error) {
	start := time.Now()
	result, err := e.inner.UpdateClient(ctx, clientID, registrationToken, metadata)
	e.observe("client_update", start, clientAction(result), err)
	return result, err
}

// DeleteClient implements EngineClient.
func (e *InstrumentedEngine) DeleteClient(ctx context.Context, clientID, registrationToken string) (*engine.ClientResult, error) {
	start := time.Now()
	result, err := e.inner.DeleteClient(ctx, clientID, registrationToken)
	e.observe("client_delete", start, clientAction(result), err)
	return result, err
}

func authorizationAction(result *engine.AuthorizationResult) string {
	if result == nil {
		return ""
	}
	return string(result.Action)
}

func clientAction(result *engine.ClientResult) string {
	if result == nil {
		return ""
	}
	return string(result.Action)
}
