// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session provides the server-side session record used by the
// authorization flow and the stores that persist it.
//
// Sessions carry the pending authorization state between the authorize,
// consent and decision requests. Handlers follow an explicit load/mutate/save
// cycle: a mutation is only visible to the next request after Save returns,
// and handlers must not send a response that depends on the session until it
// has been saved.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/seatwise/seatwise/pkg/engine"
)

// DefaultTTL is how long an idle session is kept before the store may drop it.
const DefaultTTL = 1 * time.Hour

// ErrNotFound is returned by Store.Load when no session exists for the id.
var ErrNotFound = errors.New("session not found")

// ErrIncompletePending is returned by SetPending when the engine response is
// missing the ticket. Pending fields are all-or-nothing: a session must never
// hold a client or scopes without a ticket.
var ErrIncompletePending = errors.New("pending authorization requires a ticket")

// Session is one browser session, keyed by the opaque id carried in the
// session cookie.
type Session struct {
	ID      string `json:"id"`
	Subject string `json:"subject,omitempty"`

	PendingTicket string                `json:"pending_ticket,omitempty"`
	PendingClient *engine.ClientSummary `json:"pending_client,omitempty"`
	PendingScopes []engine.Scope        `json:"pending_scopes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Authenticated reports whether a user has logged in on this session.
func (s *Session) Authenticated() bool {
	return s.Subject != ""
}

// HasPending reports whether an authorization request is waiting for consent.
func (s *Session) HasPending() bool {
	return s.PendingTicket != ""
}

// SetPending records a pending authorization. All three fields are written
// together; partial pending state is a bug condition.
func (s *Session) SetPending(ticket string, client *engine.ClientSummary, scopes []engine.Scope) error {
	if ticket == "" {
		return ErrIncompletePending
	}
	s.PendingTicket = ticket
	s.PendingClient = client
	s.PendingScopes = scopes
	return nil
}

// ClearPending removes the pending authorization. A cleared ticket can never
// be resolved again; replaying the decision yields a validation failure.
func (s *Session) ClearPending() {
	s.PendingTicket = ""
	s.PendingClient = nil
	s.PendingScopes = nil
}

// Store persists sessions. Save must be durably complete before it returns:
// the very next HTTP request may load the session on another connection.
type Store interface {
	// Load retrieves the session with the given id, or ErrNotFound.
	Load(ctx context.Context, id string) (*Session, error)

	// Save writes the session. It overwrites any previous state and resets
	// the session's TTL.
	Save(ctx context.Context, sess *Session) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}
