// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/seatwise/pkg/authserver/session"
	"github.com/seatwise/seatwise/pkg/engine"
)

// fakeEngine is a scriptable Engine for handler tests. Each operation
// returns the configured result and records the arguments it saw.
type fakeEngine struct {
	authorizeResult *engine.AuthorizationResult
	issueResult     *engine.AuthorizationResult
	failResult      *engine.AuthorizationResult
	tokenResult     *engine.TokenResult
	clientResult    *engine.ClientResult
	err             error

	calls []string

	lastParameters   string
	lastTicket       string
	lastSubject      string
	lastReason       string
	lastClientID     string
	lastClientSecret string
	lastDCRClientID  string
	lastRegToken     string
	lastMetadata     json.RawMessage
}

func (f *fakeEngine) Authorize(_ context.Context, parameters string) (*engine.AuthorizationResult, error) {
	f.calls = append(f.calls, "authorize")
	f.lastParameters = parameters
	return f.authorizeResult, f.err
}

func (f *fakeEngine) AuthorizeIssue(_ context.Context, ticket, subject string) (*engine.AuthorizationResult, error) {
	f.calls = append(f.calls, "issue")
	f.lastTicket = ticket
	f.lastSubject = subject
	return f.issueResult, f.err
}

func (f *fakeEngine) AuthorizeFail(_ context.Context, ticket, reason string) (*engine.AuthorizationResult, error) {
	f.calls = append(f.calls, "fail")
	f.lastTicket = ticket
	f.lastReason = reason
	return f.failResult, f.err
}

func (f *fakeEngine) Token(_ context.Context, parameters, clientID, clientSecret string) (*engine.TokenResult, error) {
	f.calls = append(f.calls, "token")
	f.lastParameters = parameters
	f.lastClientID = clientID
	f.lastClientSecret = clientSecret
	return f.tokenResult, f.err
}

func (f *fakeEngine) RegisterClient(_ context.Context, metadata json.RawMessage) (*engine.ClientResult, error) {
	f.calls = append(f.calls, "register")
	f.lastMetadata = metadata
	return f.clientResult, f.err
}

func (f *fakeEngine) GetClient(_ context.Context, clientID, registrationToken string) (*engine.ClientResult, error) {
	f.calls = append(f.calls, "get")
	f.lastDCRClientID = clientID
	f.lastRegToken = registrationToken
	return f.clientResult, f.err
}

func (f *fakeEngine) UpdateClient(_ context.Context, clientID, registrationToken string, metadata json.RawMessage) (*engine.ClientResult, error) {
	f.calls = append(f.calls, "update")
	f.lastDCRClientID = clientID
	f.lastRegToken = registrationToken
	f.lastMetadata = metadata
	return f.clientResult, f.err
}

func (f *fakeEngine) DeleteClient(_ context.Context, clientID, registrationToken string) (*engine.ClientResult, error) {
	f.calls = append(f.calls, "delete")
	f.lastDCRClientID = clientID
	f.lastRegToken = registrationToken
	return f.clientResult, f.err
}

// testServer bundles the router under test with its session store so tests
// can seed and inspect session state directly.
type testServer struct {
	handler http.Handler
	store   *session.MemoryStore
}

func newTestServer(t *testing.T, eng Engine) *testServer {
	t.Helper()

	store := session.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	rt := NewRouter(eng, store, NewStaticAuthenticator(map[string]string{"alice": "wonderland"}), Config{
		Issuer:          "https://as.example",
		ScopesSupported: []string{"mcp:tickets:read", "mcp:tickets:write"},
	})

	r := chi.NewRouter()
	r.Use(session.Middleware(store, session.CookieConfig{}, nil))
	rt.Routes(r)

	return &testServer{handler: r, store: store}
}

// seedSession stores a session and returns the cookie that selects it.
func (ts *testServer) seedSession(t *testing.T, sess *session.Session) *http.Cookie {
	t.Helper()
	require.NoError(t, ts.store.Save(context.Background(), sess))
	return &http.Cookie{Name: session.CookieName, Value: sess.ID}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// findSessionCookie returns the session cookie set on a response.
func findSessionCookie(t *testing.T, cookies []*http.Cookie) *http.Cookie {
	t.Helper()
	for _, cookie := range cookies {
		if cookie.Name == session.CookieName {
			return cookie
		}
	}
	t.Fatal("no session cookie set")
	return nil
}
