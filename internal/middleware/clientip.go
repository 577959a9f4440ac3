package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RealIP replaces r.RemoteAddr with the client address reported by a
// trusted proxy. Forwarding headers are ignored unless the direct peer falls
// inside one of trusted, so with no trusted proxies the socket address wins.
func RealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := forwardedFor(r, trusted); ip.IsValid() {
				r.RemoteAddr = net.JoinHostPort(ip.String(), "0")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the caller address from r.RemoteAddr, as rewritten by RealIP.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// forwardedFor walks X-Forwarded-For from the nearest hop and returns the
// first address that is not itself a trusted proxy.
func forwardedFor(r *http.Request, trusted []netip.Prefix) netip.Addr {
	if len(trusted) == 0 {
		return netip.Addr{}
	}
	peer, ok := parseAddr(ClientIP(r))
	if !ok || !isTrusted(peer, trusted) {
		return netip.Addr{}
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		if strings.TrimSpace(hops[i]) == "" {
			continue
		}
		addr, ok := parseAddr(hops[i])
		if !ok {
			return netip.Addr{}
		}
		if !isTrusted(addr, trusted) {
			return addr
		}
	}
	if addr, ok := parseAddr(r.Header.Get("X-Real-IP")); ok {
		return addr
	}
	return netip.Addr{}
}

func parseAddr(value string) (netip.Addr, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
