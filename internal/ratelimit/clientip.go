package ratelimit

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the address used for the per-IP ceiling. Forwarding
// headers are read only when trustProxy is set. In X-Forwarded-For the
// rightmost public hop wins, since everything left of the proxy's own entry
// is client supplied.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip, ok := forwardedClient(r.Header.Get("X-Forwarded-For")); ok {
			return ip
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}
	return remoteIP(r.RemoteAddr)
}

func forwardedClient(header string) (string, bool) {
	if strings.TrimSpace(header) == "" {
		return "", false
	}
	hops := strings.Split(header, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop != "" && !isInternalIP(hop) {
			return hop, true
		}
	}
	last := strings.TrimSpace(hops[len(hops)-1])
	return last, last != ""
}

func remoteIP(addr string) string {
	if addrPort, err := netip.ParseAddrPort(addr); err == nil {
		return addrPort.Addr().Unmap().String()
	}
	if ip, err := netip.ParseAddr(addr); err == nil {
		return ip.Unmap().String()
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// isInternalIP reports addresses that cannot identify a public client,
// including IPv4-mapped IPv6 forms.
func isInternalIP(raw string) bool {
	ip, err := netip.ParseAddr(raw)
	if err != nil {
		return false
	}
	ip = ip.Unmap()
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}
