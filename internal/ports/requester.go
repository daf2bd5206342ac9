// Package ports defines interfaces (hexagonal ports) for request-scoped
// concerns. Implementations live alongside the HTTP layer; orchestration
// in internal/service.
package ports

import (
	"net/http"
	"strings"
)

// RequesterResolver extracts the identity of the caller from an incoming
// request. The resolved value is treated as opaque by the services; an
// empty string means the caller is anonymous.
type RequesterResolver interface {
	Resolve(r *http.Request) string
}

// HeaderRequesterResolver resolves the requester from a single trusted
// header, typically set by an authenticating proxy in front of the API.
type HeaderRequesterResolver struct {
	Header string
}

// Resolve returns the trimmed header value, or "" when absent.
func (h HeaderRequesterResolver) Resolve(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(h.Header))
}
