package auth

import (
	"encoding/json"
	"net/http"
)

// ResourceMetadata represents the OAuth Protected Resource metadata document
// defined in RFC 9728.
type ResourceMetadata struct {
	Resource                           string   `json:"resource"`
	AuthorizationServers               []string `json:"authorization_servers"`
	BearerMethodsSupported             []string `json:"bearer_methods_supported"`
	ScopesSupported                    []string `json:"scopes_supported,omitempty"`
	AuthorizationDetailsTypesSupported []string `json:"authorization_details_types_supported,omitempty"`
}

// NewResourceMetadataHandler returns the handler for
// /.well-known/oauth-protected-resource. The document is static per resource;
// responses are cacheable and CORS-open since this is a discovery endpoint.
func NewResourceMetadataHandler(resource, issuer string, scopes, authzDetailsTypes []string) http.Handler {
	doc := ResourceMetadata{
		Resource:                           resource,
		AuthorizationServers:               []string{issuer},
		BearerMethodsSupported:             []string{"header"},
		ScopesSupported:                    scopes,
		AuthorizationDetailsTypesSupported: authzDetailsTypes,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "mcp-protocol-version, Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(doc); err != nil {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	})
}
