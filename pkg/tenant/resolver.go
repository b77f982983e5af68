package tenant

import (
	"net"
	"strings"
)

// Resolver extracts the tenant (datastore) identifier from a request host.
// When RootDomain is set, only hosts of the form "<tenant>.<root domain>"
// resolve; otherwise any host with at least three dot-separated labels
// resolves to its leftmost label.
type Resolver struct {
	RootDomain string
}

// NewResolver creates a Resolver for the given root domain. An empty root
// domain enables the label-count fallback.
func NewResolver(rootDomain string) *Resolver {
	return &Resolver{RootDomain: strings.ToLower(rootDomain)}
}

// Resolve returns the tenant id for the given Host header value, or "" when
// no subdomain is present. It never fails on malformed input.
func (r *Resolver) Resolve(host string) string {
	if host == "" {
		return ""
	}

	// Host may carry a port ("acme.example.com:8443").
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	if r.RootDomain != "" {
		sub, ok := strings.CutSuffix(host, "."+r.RootDomain)
		if !ok || sub == "" || strings.Contains(sub, ".") {
			return ""
		}
		return sub
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 || parts[0] == "" {
		return ""
	}
	return parts[0]
}
