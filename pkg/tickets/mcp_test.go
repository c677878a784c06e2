// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package tickets

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/seatwise/pkg/auth"
)

func authedContext(subject string, scopes ...string) context.Context {
	return auth.WithClaims(context.Background(), &auth.Claims{
		Subject: subject,
		Scopes:  scopes,
	})
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestListEventsTool(t *testing.T) {
	t.Parallel()

	ts := NewToolServer(testStore())
	result, err := ts.handleListEvents(authedContext("alice", ScopeRead), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "evt-1")
	assert.Contains(t, text, "Keynote")
	assert.Contains(t, text, `"seats_left": 100`)
}

func TestToolsEnforceScopes(t *testing.T) {
	t.Parallel()

	ts := NewToolServer(testStore())

	tests := []struct {
		name   string
		invoke func(ctx context.Context) (*mcp.CallToolResult, error)
		scopes []string
	}{
		{
			name: "list_events needs read",
			invoke: func(ctx context.Context) (*mcp.CallToolResult, error) {
				return ts.handleListEvents(ctx, mcp.CallToolRequest{})
			},
			scopes: []string{ScopeWrite},
		},
		{
			name: "reserve_seats needs write",
			invoke: func(ctx context.Context) (*mcp.CallToolResult, error) {
				return ts.handleReserveSeats(ctx, toolRequest(map[string]any{"event_id": "evt-1", "seats": 1}))
			},
			scopes: []string{ScopeRead},
		},
		{
			name: "cancel_reservation needs write",
			invoke: func(ctx context.Context) (*mcp.CallToolResult, error) {
				return ts.handleCancelReservation(ctx, toolRequest(map[string]any{"reservation_id": "r-1"}))
			},
			scopes: []string{ScopeRead},
		},
		{
			name: "list_reservations needs read",
			invoke: func(ctx context.Context) (*mcp.CallToolResult, error) {
				return ts.handleListReservations(ctx, mcp.CallToolRequest{})
			},
			scopes: []string{ScopeWrite},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := tt.invoke(authedContext("alice", tt.scopes...))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), "insufficient scope")

			// No claims at all is also a denial, not a panic.
			result, err = tt.invoke(context.Background())
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestReserveSeatsTool(t *testing.T) {
	t.Parallel()

	store := testStore()
	ts := NewToolServer(store)
	ctx := authedContext("alice", ScopeRead, ScopeWrite)

	result, err := ts.handleReserveSeats(ctx, toolRequest(map[string]any{"event_id": "evt-1", "seats": 2}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, resultText(t, result), `"subject": "alice"`)

	ev, err := store.GetEvent(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 98, ev.SeatsLeft)
}

func TestReserveSeatsToolErrors(t *testing.T) {
	t.Parallel()

	ts := NewToolServer(testStore())
	ctx := authedContext("alice", ScopeWrite)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing event_id", map[string]any{"seats": 1}, "event_id argument is required"},
		{"missing seats", map[string]any{"event_id": "evt-1"}, "seats argument is required"},
		{"zero seats", map[string]any{"event_id": "evt-1", "seats": 0}, "at least 1"},
		{"unknown event", map[string]any{"event_id": "evt-nope", "seats": 1}, "event not found"},
		{"oversell", map[string]any{"event_id": "evt-2", "seats": 5}, "not enough seats"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := ts.handleReserveSeats(ctx, toolRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

func TestCancelReservationTool(t *testing.T) {
	t.Parallel()

	store := testStore()
	ts := NewToolServer(store)

	res, err := store.Reserve(context.Background(), "alice", "evt-1", 1)
	require.NoError(t, err)

	// Bob cancelling Alice's reservation reads as not-found.
	result, err := ts.handleCancelReservation(authedContext("bob", ScopeWrite),
		toolRequest(map[string]any{"reservation_id": res.ID}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "reservation not found")

	result, err = ts.handleCancelReservation(authedContext("alice", ScopeWrite),
		toolRequest(map[string]any{"reservation_id": res.ID}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "cancelled")
}

func TestListReservationsTool(t *testing.T) {
	t.Parallel()

	store := testStore()
	ts := NewToolServer(store)

	result, err := ts.handleListReservations(authedContext("alice", ScopeRead), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, "[]", resultText(t, result))

	_, err = store.Reserve(context.Background(), "alice", "evt-1", 1)
	require.NoError(t, err)
	_, err = store.Reserve(context.Background(), "bob", "evt-1", 1)
	require.NoError(t, err)

	result, err = ts.handleListReservations(authedContext("alice", ScopeRead), mcp.CallToolRequest{})
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, `"subject": "alice"`)
	assert.NotContains(t, text, `"subject": "bob"`)
}
