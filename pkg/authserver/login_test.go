// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/seatwise/pkg/authserver/session"
)

func postLogin(ts *testServer, cookie *http.Cookie, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return ts.do(req)
}

func TestLoginSuccessPreservesPendingState(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeEngine{})
	cookie := ts.seedSession(t, pendingSession("sess-1", ""))

	rec := postLogin(ts, cookie, url.Values{
		"username":  {"alice"},
		"password":  {"wonderland"},
		"return_to": {"/authorize/consent?ticket=tkt-42"},
	})

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/authorize/consent?ticket=tkt-42", rec.Header().Get("Location"))

	// Login writes the subject without disturbing the pending authorization.
	sess, err := ts.store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Subject)
	assert.Equal(t, "tkt-42", sess.PendingTicket)
}

func TestLoginFailure(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeEngine{})
	cookie := ts.seedSession(t, &session.Session{ID: "sess-1"})

	rec := postLogin(ts, cookie, url.Values{
		"username": {"alice"},
		"password": {"not-it"},
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid username or password")

	sess, err := ts.store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, sess.Subject)
}

func TestLoginRejectsOpenRedirects(t *testing.T) {
	t.Parallel()

	for _, target := range []string{"https://evil.example/", "//evil.example/", "/\\evil.example", ""} {
		ts := newTestServer(t, &fakeEngine{})
		cookie := ts.seedSession(t, &session.Session{ID: "sess-1"})

		rec := postLogin(ts, cookie, url.Values{
			"username":  {"alice"},
			"password":  {"wonderland"},
			"return_to": {target},
		})

		require.Equal(t, http.StatusFound, rec.Code, target)
		assert.Equal(t, "/", rec.Header().Get("Location"), target)
	}
}

func TestLoginPageRendersReturnTarget(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeEngine{})
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/login?return_to=%2Fauthorize%2Fconsent%3Fticket%3Dtkt-42", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="return_to"`)
	assert.Contains(t, rec.Body.String(), "tkt-42")
}
