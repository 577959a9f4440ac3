package middleware

import (
	"net"
	"net/http"
	"strings"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/platform/requestctx"
)

var reservedLabels = map[string]struct{}{
	"www":   {},
	"api":   {},
	"admin": {},
	"app":   {},
}

// Tenant resolves "{slug}.{rootDomain}" hosts to a business slug and stores
// it on the request context. Hosts outside rootDomain pass through untouched.
func Tenant(rootDomain string) func(http.Handler) http.Handler {
	root := strings.ToLower(strings.Trim(strings.TrimSpace(rootDomain), "."))
	return func(next http.Handler) http.Handler {
		if root == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slug, ok := TenantFromHost(r.Host, root); ok {
				r = r.WithContext(requestctx.WithTenant(r.Context(), slug))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TenantFromHost extracts the subdomain label of host under rootDomain.
func TenantFromHost(host, rootDomain string) (string, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	suffix := "." + rootDomain
	if rootDomain == "" || !strings.HasSuffix(host, suffix) {
		return "", false
	}
	label := strings.TrimSuffix(host, suffix)
	if label == "" || strings.Contains(label, ".") {
		return "", false
	}
	if _, reserved := reservedLabels[label]; reserved {
		return "", false
	}
	if !domain.ValidSlug(label) {
		return "", false
	}
	return label, true
}
