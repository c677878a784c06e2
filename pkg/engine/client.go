// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single engine round trip. Engine calls are plain
// request/response RPCs; anything slower than this is treated as a failure.
const DefaultTimeout = 10 * time.Second

const maxResponseSize = 1024 * 1024 // 1MB limit on engine responses

// Client talks to the decision engine over HTTP+JSON. All methods are safe
// for concurrent use; the client holds no per-call state.
type Client struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-call timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for request/response diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the engine at baseURL. The service token
// authenticates this server to the engine and is sent on every call.
func New(baseURL, serviceToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		serviceToken: serviceToken,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Authorize forwards the raw, url-encoded authorization request parameters
// to the engine. The parameter string is passed along unmodified so the
// engine sees exactly what the client sent.
func (c *Client) Authorize(ctx context.Context, parameters string) (*AuthorizationResult, error) {
	var result AuthorizationResult
	if err := c.post(ctx, "/api/authorization", authorizationRequest{Parameters: parameters}, &result); err != nil {
		return nil, fmt.Errorf("authorization call failed: %w", err)
	}
	return &result, nil
}

// AuthorizeIssue asks the engine to issue an authorization code for the
// pending request identified by ticket, bound to the authenticated subject.
func (c *Client) AuthorizeIssue(ctx context.Context, ticket, subject string) (*AuthorizationResult, error) {
	var result AuthorizationResult
	req := authorizationIssueRequest{Ticket: ticket, Subject: subject}
	if err := c.post(ctx, "/api/authorization/issue", req, &result); err != nil {
		return nil, fmt.Errorf("authorization issue call failed: %w", err)
	}
	return &result, nil
}

// AuthorizeFail asks the engine to fail the pending request identified by
// ticket, e.g. because the user denied consent.
func (c *Client) AuthorizeFail(ctx context.Context, ticket, reason string) (*AuthorizationResult, error) {
	var result AuthorizationResult
	req := authorizationFailRequest{Ticket: ticket, Reason: reason}
	if err := c.post(ctx, "/api/authorization/fail", req, &result); err != nil {
		return nil, fmt.Errorf("authorization fail call failed: %w", err)
	}
	return &result, nil
}

// Token forwards a token request. parameters is the raw form-encoded body of
// the token endpoint request; clientID and clientSecret are the credentials
// extracted by the caller (Basic header or form fields).
func (c *Client) Token(ctx context.Context, parameters, clientID, clientSecret string) (*TokenResult, error) {
	var result TokenResult
	req := tokenRequest{Parameters: parameters, ClientID: clientID, ClientSecret: clientSecret}
	if err := c.post(ctx, "/api/token", req, &result); err != nil {
		return nil, fmt.Errorf("token call failed: %w", err)
	}
	return &result, nil
}

// Introspect validates a bearer token against the engine. requiredScopes and
// resource let the engine perform scope and audience checks server-side; the
// caller still applies its own resource gate on an OK result.
func (c *Client) Introspect(ctx context.Context, token string, requiredScopes []string, resource string) (*IntrospectionResult, error) {
	var result IntrospectionResult
	req := introspectionRequest{Token: token, Scopes: requiredScopes, Resource: resource}
	if err := c.post(ctx, "/api/introspection", req, &result); err != nil {
		return nil, fmt.Errorf("introspection call failed: %w", err)
	}
	return &result, nil
}

// RegisterClient forwards a dynamic client registration request. metadata is
// the client metadata document, already augmented by the caller.
func (c *Client) RegisterClient(ctx context.Context, metadata json.RawMessage) (*ClientResult, error) {
	var result ClientResult
	if err := c.post(ctx, "/api/client/register", clientRegisterRequest{Metadata: metadata}, &result); err != nil {
		return nil, fmt.Errorf("client register call failed: %w", err)
	}
	return &result, nil
}

// GetClient retrieves a registered client's current metadata.
func (c *Client) GetClient(ctx context.Context, clientID, registrationToken string) (*ClientResult, error) {
	var result ClientResult
	req := clientManagementRequest{ClientID: clientID, RegistrationToken: registrationToken}
	if err := c.post(ctx, "/api/client/get", req, &result); err != nil {
		return nil, fmt.Errorf("client get call failed: %w", err)
	}
	return &result, nil
}

// UpdateClient replaces a registered client's metadata.
func (c *Client) UpdateClient(ctx context.Context, clientID, registrationToken string, metadata json.RawMessage) (*ClientResult, error) {
	var result ClientResult
	req := clientManagementRequest{ClientID: clientID, RegistrationToken: registrationToken, Metadata: metadata}
	if err := c.post(ctx, "/api/client/update", req, &result); err != nil {
		return nil, fmt.Errorf("client update call failed: %w", err)
	}
	return &result, nil
}

// DeleteClient deprovisions a registered client.
func (c *Client) DeleteClient(ctx context.Context, clientID, registrationToken string) (*ClientResult, error) {
	var result ClientResult
	req := clientManagementRequest{ClientID: clientID, RegistrationToken: registrationToken}
	if err := c.post(ctx, "/api/client/delete", req, &result); err != nil {
		return nil, fmt.Errorf("client delete call failed: %w", err)
	}
	return &result, nil
}

// post performs one engine RPC. A non-2xx status is an error: the engine
// reports per-request verdicts through the action field of a 200 response,
// so anything else means the engine itself is unhealthy.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to engine failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "engine call completed",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a bounded amount so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return fmt.Errorf("engine returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode engine response: %w", err)
	}

	return nil
}
