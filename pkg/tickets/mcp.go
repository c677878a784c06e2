// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/seatwise/seatwise/pkg/auth"
)

// Scopes the tool surface enforces. Read covers catalog browsing and the
// subject's own reservation list; write covers anything that changes
// inventory.
const (
	ScopeRead  = "mcp:tickets:read"
	ScopeWrite = "mcp:tickets:write"
)

// Scopes returns every scope the tool surface knows about, for metadata
// documents.
func Scopes() []string {
	return []string{ScopeRead, ScopeWrite}
}

// ToolServer exposes the reservation domain as MCP tools. Authorization
// happens in two layers: the HTTP middleware in front of the transport
// validates the bearer token, and each tool handler checks the scope it
// needs against the claims the middleware attached.
type ToolServer struct {
	store  Store
	logger *slog.Logger
}

// ToolServerOption configures a ToolServer.
type ToolServerOption func(*ToolServer)

// WithLogger sets the logger for the tool server.
func WithLogger(logger *slog.Logger) ToolServerOption {
	return func(ts *ToolServer) {
		ts.logger = logger
	}
}

// NewToolServer creates a ToolServer over the given store.
func NewToolServer(store Store, opts ...ToolServerOption) *ToolServer {
	ts := &ToolServer{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// RegisterTools registers the reservation tools on an MCP server.
func (ts *ToolServer) RegisterTools(srv *server.MCPServer) {
	srv.AddTool(mcp.NewTool("list_events",
		mcp.WithDescription("List all events and how many seats each has left"),
	), ts.handleListEvents)

	srv.AddTool(mcp.NewTool("reserve_seats",
		mcp.WithDescription("Reserve seats for an event"),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("ID of the event to reserve seats for"),
		),
		mcp.WithNumber("seats",
			mcp.Required(),
			mcp.Description("Number of seats to reserve"),
		),
	), ts.handleReserveSeats)

	srv.AddTool(mcp.NewTool("cancel_reservation",
		mcp.WithDescription("Cancel one of your reservations and release its seats"),
		mcp.WithString("reservation_id",
			mcp.Required(),
			mcp.Description("ID of the reservation to cancel"),
		),
	), ts.handleCancelReservation)

	srv.AddTool(mcp.NewTool("list_reservations",
		mcp.WithDescription("List your reservations"),
	), ts.handleListReservations)
}

// requireScope extracts the claims the token middleware attached and checks
// the scope the tool needs. A missing claims value means the transport was
// mounted without the middleware, which is a deployment bug worth logging.
func (ts *ToolServer) requireScope(ctx context.Context, scope string) (*auth.Claims, *mcp.CallToolResult) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		ts.logger.ErrorContext(ctx, "tool invoked without token claims in context")
		return nil, mcp.NewToolResultError("unauthenticated: no token claims")
	}
	if !claims.HasScopes(scope) {
		return nil, mcp.NewToolResultError(fmt.Sprintf("insufficient scope: %s required", scope))
	}
	return claims, nil
}

func (ts *ToolServer) handleListEvents(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, denied := ts.requireScope(ctx, ScopeRead); denied != nil {
		return denied, nil
	}

	events, err := ts.store.ListEvents(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list events: %v", err)), nil
	}
	return jsonToolResult(events)
}

func (ts *ToolServer) handleReserveSeats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	claims, denied := ts.requireScope(ctx, ScopeWrite)
	if denied != nil {
		return denied, nil
	}

	eventID, err := request.RequireString("event_id")
	if err != nil {
		return mcp.NewToolResultError("event_id argument is required"), nil
	}
	seats, err := request.RequireInt("seats")
	if err != nil {
		return mcp.NewToolResultError("seats argument is required and must be a number"), nil
	}
	if seats < 1 {
		return mcp.NewToolResultError("seats must be at least 1"), nil
	}

	res, err := ts.store.Reserve(ctx, claims.Subject, eventID, seats)
	switch {
	case errors.Is(err, ErrEventNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("event not found: %s", eventID)), nil
	case errors.Is(err, ErrNotEnoughSeats):
		return mcp.NewToolResultError(err.Error()), nil
	case err != nil:
		ts.logger.ErrorContext(ctx, "reservation failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		return mcp.NewToolResultError("reservation failed"), nil
	}

	return jsonToolResult(res)
}

func (ts *ToolServer) handleCancelReservation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	claims, denied := ts.requireScope(ctx, ScopeWrite)
	if denied != nil {
		return denied, nil
	}

	reservationID, err := request.RequireString("reservation_id")
	if err != nil {
		return mcp.NewToolResultError("reservation_id argument is required"), nil
	}

	err = ts.store.CancelReservation(ctx, claims.Subject, reservationID)
	switch {
	// Another subject's reservation looks identical to a missing one.
	case errors.Is(err, ErrReservationNotFound), errors.Is(err, ErrNotOwner):
		return mcp.NewToolResultError(fmt.Sprintf("reservation not found: %s", reservationID)), nil
	case err != nil:
		ts.logger.ErrorContext(ctx, "cancellation failed",
			slog.String("reservation_id", reservationID),
			slog.String("error", err.Error()),
		)
		return mcp.NewToolResultError("cancellation failed"), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("reservation %s cancelled", reservationID)), nil
}

func (ts *ToolServer) handleListReservations(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	claims, denied := ts.requireScope(ctx, ScopeRead)
	if denied != nil {
		return denied, nil
	}

	reservations, err := ts.store.ListReservations(ctx, claims.Subject)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reservations: %v", err)), nil
	}
	if reservations == nil {
		reservations = []Reservation{}
	}
	return jsonToolResult(reservations)
}

func jsonToolResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
