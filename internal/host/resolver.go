// Package host maps inbound request metadata to a product variant.
package host

import (
	"net"
	"strings"

	"brief-agent/internal/domain"
)

// VariantHeader lets trusted callers pin the variant explicitly.
const VariantHeader = "X-Host-Variant"

// RequestMeta is the subset of request metadata the resolver looks at.
// Header names are matched case-insensitively.
type RequestMeta struct {
	Host    string
	Headers map[string]string
}

// Header returns the first header value matching name, ignoring case.
func (m RequestMeta) Header(name string) string {
	for k, v := range m.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Resolver decides which product variant serves a request.
type Resolver struct {
	expressHosts map[string]struct{}
}

// NewResolver builds a Resolver. Hosts listed in expressHosts, and any host
// whose first label is "express", resolve to the express variant; everything
// else is studio.
func NewResolver(expressHosts []string) *Resolver {
	r := &Resolver{expressHosts: make(map[string]struct{}, len(expressHosts))}
	for _, h := range expressHosts {
		h = normalizeHost(h)
		if h != "" {
			r.expressHosts[h] = struct{}{}
		}
	}
	return r
}

// Resolve returns the variant for meta. It never fails.
func (r *Resolver) Resolve(meta RequestMeta) domain.HostVariant {
	if v := domain.HostVariant(strings.ToLower(strings.TrimSpace(meta.Header(VariantHeader)))); v.Valid() {
		return v
	}
	h := meta.Header("X-Forwarded-Host")
	if h == "" {
		h = meta.Host
	}
	if h == "" {
		h = meta.Header("Host")
	}
	// X-Forwarded-Host may carry a proxy chain; the first entry is the client-facing host.
	if i := strings.IndexByte(h, ','); i >= 0 {
		h = h[:i]
	}
	h = normalizeHost(h)
	if _, ok := r.expressHosts[h]; ok {
		return domain.HostExpress
	}
	if strings.HasPrefix(h, "express.") {
		return domain.HostExpress
	}
	return domain.HostStudio
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if host, _, err := net.SplitHostPort(h); err == nil {
		h = host
	}
	return strings.TrimSuffix(h, ".")
}
