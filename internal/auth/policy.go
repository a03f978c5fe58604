package auth

import (
	"net/http"
	"strings"
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// PublicPaths are served without a token.
var PublicPaths = []string{
	"/",
	"/ws",
	"/healthz",
	"/metrics",
	"/api/auth/send-message",
}

// PublicPrefixes are served without a token.
var PublicPrefixes = []string{"/api/location/"}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves required role for the request.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path

	switch {
	case path == "/api/auth/get-messages":
		return RoleAdmin, true
	case path == "/api/auth/delete-message":
		return RoleAdmin, true
	case strings.HasPrefix(path, "/api/admin/"):
		return RoleAdmin, true
	}

	if strings.HasPrefix(path, "/api/") {
		return RoleUser, true
	}
	return "", false
}
