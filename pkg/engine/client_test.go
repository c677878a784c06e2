// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	var gotBody authorizationRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(AuthorizationResult{
			Action: AuthorizationActionInteraction,
			Ticket: "tkt-123",
			Client: &ClientSummary{ClientID: "client-1", ClientName: "Demo"},
			Scopes: []Scope{{Name: "mcp:tickets:read"}},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "svc-token")
	result, err := client.Authorize(context.Background(), "response_type=code&client_id=client-1")
	require.NoError(t, err)

	assert.Equal(t, "/api/authorization", gotPath)
	assert.Equal(t, "Bearer svc-token", gotAuth)
	assert.Equal(t, "response_type=code&client_id=client-1", gotBody.Parameters)
	assert.Equal(t, AuthorizationActionInteraction, result.Action)
	assert.Equal(t, "tkt-123", result.Ticket)
	require.NotNil(t, result.Client)
	assert.Equal(t, "Demo", result.Client.ClientName)
}

func TestAuthorizeIssueAndFail(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/authorization/issue":
			var req authorizationIssueRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "tkt-123", req.Ticket)
			assert.Equal(t, "alice", req.Subject)
			_ = json.NewEncoder(w).Encode(AuthorizationResult{
				Action:          AuthorizationActionLocation,
				ResponseContent: "https://client.example/cb?code=abc",
			})
		case "/api/authorization/fail":
			var req authorizationFailRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "DENIED", req.Reason)
			_ = json.NewEncoder(w).Encode(AuthorizationResult{
				Action:          AuthorizationActionLocation,
				ResponseContent: "https://client.example/cb?error=access_denied",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New(srv.URL, "svc-token")

	issued, err := client.AuthorizeIssue(context.Background(), "tkt-123", "alice")
	require.NoError(t, err)
	assert.Equal(t, AuthorizationActionLocation, issued.Action)
	assert.Contains(t, issued.ResponseContent, "code=abc")

	failed, err := client.AuthorizeFail(context.Background(), "tkt-123", "DENIED")
	require.NoError(t, err)
	assert.Contains(t, failed.ResponseContent, "error=access_denied")
}

func TestIntrospect(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req introspectionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "opaque-token", req.Token)
		assert.Equal(t, []string{"mcp:tickets:read"}, req.Scopes)
		assert.Equal(t, "https://rs.example/mcp", req.Resource)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(IntrospectionResult{
			Action:    IntrospectionActionOK,
			Subject:   "alice",
			ClientID:  "client-1",
			Scopes:    []string{"mcp:tickets:read"},
			Resources: []string{"https://rs.example/mcp"},
			ExpiresAt: 1900000000,
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "svc-token")
	result, err := client.Introspect(context.Background(), "opaque-token", []string{"mcp:tickets:read"}, "https://rs.example/mcp")
	require.NoError(t, err)
	assert.Equal(t, IntrospectionActionOK, result.Action)
	assert.Equal(t, "alice", result.Subject)
}

func TestEngineErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(srv.URL, "svc-token")

	_, err := client.Authorize(context.Background(), "response_type=code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	_, err = client.Token(context.Background(), "grant_type=authorization_code", "client-1", "")
	require.Error(t, err)

	_, err = client.DeleteClient(context.Background(), "client-1", "reg-token")
	require.Error(t, err)
}

func TestClientManagementRoundTrips(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/client/register":
			var req clientRegisterRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.JSONEq(t, `{"client_name":"Demo"}`, string(req.Metadata))
			_ = json.NewEncoder(w).Encode(ClientResult{
				Action:          ClientActionCreated,
				ResponseContent: `{"client_id":"c-1"}`,
			})
		case "/api/client/delete":
			var req clientManagementRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "c-1", req.ClientID)
			assert.Equal(t, "reg-token", req.RegistrationToken)
			_ = json.NewEncoder(w).Encode(ClientResult{Action: ClientActionDeleted})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New(srv.URL, "svc-token")

	created, err := client.RegisterClient(context.Background(), json.RawMessage(`{"client_name":"Demo"}`))
	require.NoError(t, err)
	assert.Equal(t, ClientActionCreated, created.Action)
	assert.Equal(t, `{"client_id":"c-1"}`, created.ResponseContent)

	deleted, err := client.DeleteClient(context.Background(), "c-1", "reg-token")
	require.NoError(t, err)
	assert.Equal(t, ClientActionDeleted, deleted.Action)
}
