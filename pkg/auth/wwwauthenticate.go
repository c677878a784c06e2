package auth

import (
	"fmt"
	"strings"
)

// Challenge describes one WWW-Authenticate Bearer challenge per RFC 6750,
// optionally carrying the RFC 9728 resource_metadata parameter. Zero-valued
// fields are omitted from the header.
type Challenge struct {
	Realm            string
	Error            string
	ErrorDescription string
	Scope            string
	ResourceMetadata string
}

// String renders the challenge as a single comma-joined Bearer header value.
// Clients must match individual parameters, not their ordering.
func (c Challenge) String() string {
	var parts []string

	if c.Realm != "" {
		parts = append(parts, fmt.Sprintf(`realm="%s"`, escapeQuotes(c.Realm)))
	}
	if c.Error != "" {
		parts = append(parts, fmt.Sprintf(`error="%s"`, escapeQuotes(c.Error)))
	}
	if c.ErrorDescription != "" {
		parts = append(parts, fmt.Sprintf(`error_description="%s"`, escapeQuotes(c.ErrorDescription)))
	}
	if c.Scope != "" {
		parts = append(parts, fmt.Sprintf(`scope="%s"`, escapeQuotes(c.Scope)))
	}
	if c.ResourceMetadata != "" {
		parts = append(parts, fmt.Sprintf(`resource_metadata="%s"`, escapeQuotes(c.ResourceMetadata)))
	}

	return "Bearer " + strings.Join(parts, ", ")
}

// escapeQuotes escapes backslashes and quotes for a quoted-string context.
func escapeQuotes(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
