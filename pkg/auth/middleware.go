// Package auth provides the bearer-token middleware protecting resource
// endpoints, the claims it attaches to the request context, and the
// protected-resource metadata handler advertised in its challenges.
//
// Token validity is decided by the remote decision engine via introspection;
// this package only enforces the RFC 6750 surface around that decision:
// header-only token extraction, challenge composition, scope and
// resource-indicator gates.
package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/seatwise/seatwise/pkg/engine"
)

// Introspector validates a bearer token against the decision engine.
type Introspector interface {
	Introspect(ctx context.Context, token string, requiredScopes []string, resource string) (*engine.IntrospectionResult, error)
}

// MiddlewareConfig configures TokenMiddleware.
type MiddlewareConfig struct {
	// Realm names the protection space in challenges, typically the issuer URL.
	Realm string

	// Resource is the canonical identifier of the protected resource. When
	// set, tokens whose resource set does not include it are rejected as
	// invalid_token even if introspection succeeds.
	Resource string

	// ResourceMetadataURL is advertised in challenges per RFC 9728.
	ResourceMetadataURL string

	// RequiredScopes are forwarded to introspection and listed in
	// insufficient_scope challenges.
	RequiredScopes []string

	// RequireSecureTransport rejects plain-HTTP requests. Leave unset when a
	// TLS-terminating proxy fronts the server and sets X-Forwarded-Proto.
	RequireSecureTransport bool
}

// TokenMiddleware gates a protected route behind bearer-token introspection.
//
// Tokens are accepted from the Authorization header only; the OAuth 2.1
// query-string and form-body carriers are deliberately not supported. Each
// request triggers exactly one introspection call and the result is never
// reused across requests.
func TokenMiddleware(intro Introspector, cfg MiddlewareConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if cfg.RequireSecureTransport && !isSecure(r) {
				writeBearerError(w, http.StatusBadRequest, nil,
					"invalid_request", "TLS is required to access this resource")
				return
			}

			token, ok := ExtractBearerToken(r)
			if !ok {
				writeBearerError(w, http.StatusUnauthorized, &Challenge{
					Realm:            cfg.Realm,
					Error:            "invalid_request",
					ErrorDescription: "Access token is required",
					ResourceMetadata: cfg.ResourceMetadataURL,
				}, "invalid_request", "Access token is required")
				return
			}

			result, err := intro.Introspect(ctx, token, cfg.RequiredScopes, cfg.Resource)
			if err != nil {
				logger.ErrorContext(ctx, "token introspection failed",
					slog.String("error", err.Error()),
				)
				writeBearerError(w, http.StatusInternalServerError, nil,
					"server_error", "Token validation failed")
				return
			}

			switch result.Action {
			case engine.IntrospectionActionInternalServerError:
				writeBearerError(w, http.StatusInternalServerError, nil,
					"server_error", "Token validation failed")
				return

			case engine.IntrospectionActionBadRequest:
				writeBearerError(w, http.StatusBadRequest, nil,
					"invalid_request", "Malformed token introspection request")
				return

			case engine.IntrospectionActionUnauthorized:
				writeBearerError(w, http.StatusUnauthorized, &Challenge{
					Realm:            cfg.Realm,
					Error:            "invalid_token",
					ErrorDescription: "The access token is invalid or expired",
					ResourceMetadata: cfg.ResourceMetadataURL,
				}, "invalid_token", "The access token is invalid or expired")
				return

			case engine.IntrospectionActionForbidden:
				scope := strings.Join(cfg.RequiredScopes, " ")
				writeBearerError(w, http.StatusForbidden, &Challenge{
					Realm:            cfg.Realm,
					Error:            "insufficient_scope",
					ErrorDescription: "The access token lacks required scopes",
					Scope:            scope,
					ResourceMetadata: cfg.ResourceMetadataURL,
				}, "insufficient_scope", "The access token lacks required scopes")
				return

			case engine.IntrospectionActionOK:
				// Fall through to the resource gate below.

			default:
				// The action set is closed by contract; anything else means
				// the engine speaks a different protocol version.
				logger.ErrorContext(ctx, "unexpected introspection action",
					slog.String("action", string(result.Action)),
				)
				writeBearerError(w, http.StatusInternalServerError, nil,
					"server_error", "Token validation failed")
				return
			}

			// Token validity and resource scoping are independent gates: an
			// otherwise valid token not minted for this resource is rejected.
			claims := claimsFromResult(result)
			if cfg.Resource != "" && !claims.HasResource(cfg.Resource) {
				writeBearerError(w, http.StatusUnauthorized, &Challenge{
					Realm:            cfg.Realm,
					Error:            "invalid_token",
					ErrorDescription: "Access token does not include required resource",
					ResourceMetadata: cfg.ResourceMetadataURL,
				}, "invalid_token", "Access token does not include required resource")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

// RequireScopes is a composable gate for use after TokenMiddleware. It
// rejects requests whose attached scope set is not a superset of required.
// The scope listing in the error is diagnostic only; the decision is made
// solely on set containment.
func RequireScopes(realm string, required ...string) func(http.Handler) http.Handler {
	scope := strings.Join(required, " ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeBearerError(w, http.StatusUnauthorized, &Challenge{
					Realm:            realm,
					Error:            "invalid_token",
					ErrorDescription: "Access token is required",
				}, "invalid_token", "Access token is required")
				return
			}

			if !claims.HasScopes(required...) {
				desc := "Required scopes: " + scope + "; granted scopes: " + strings.Join(claims.Scopes, " ")
				writeBearerError(w, http.StatusForbidden, &Challenge{
					Realm:            realm,
					Error:            "insufficient_scope",
					ErrorDescription: desc,
					Scope:            scope,
				}, "insufficient_scope", desc)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ExtractBearerToken pulls the bearer token from the Authorization header.
// The scheme comparison is case-insensitive per RFC 7235.
func ExtractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

func claimsFromResult(result *engine.IntrospectionResult) *Claims {
	claims := &Claims{
		Subject:   result.Subject,
		ClientID:  result.ClientID,
		Scopes:    result.Scopes,
		Resources: result.Resources,
	}
	if result.ExpiresAt > 0 {
		claims.ExpiresAt = time.Unix(result.ExpiresAt, 0)
	}
	return claims
}

func isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// writeBearerError writes an RFC 6750 error response: the challenge header
// for 401/403 responses plus a small JSON body.
func writeBearerError(w http.ResponseWriter, status int, challenge *Challenge, code, description string) {
	if challenge != nil {
		w.Header().Set("WWW-Authenticate", challenge.String())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}
