package auth

import (
	"net"
	"net/netip"
	"strings"
)

// Policy decides whether a caller may use the service, based only on the
// address of the connection.
type Policy interface {
	IsRequestAuthorized(remoteAddr string) bool
}

// PolicyFunc adapts a plain function to Policy
type PolicyFunc func(remoteAddr string) bool

// IsRequestAuthorized implements Policy
func (f PolicyFunc) IsRequestAuthorized(remoteAddr string) bool {
	return f(remoteAddr)
}

// LoopbackOnly accepts callers on 127.0.0.0/8 and ::1
func LoopbackOnly() Policy {
	return PolicyFunc(func(remoteAddr string) bool {
		addr, ok := parseRemoteAddr(remoteAddr)
		return ok && addr.IsLoopback()
	})
}

// AllowNetworks accepts callers whose address falls in any of the prefixes
func AllowNetworks(prefixes ...netip.Prefix) Policy {
	return PolicyFunc(func(remoteAddr string) bool {
		addr, ok := parseRemoteAddr(remoteAddr)
		if !ok {
			return false
		}
		for _, p := range prefixes {
			if p.Contains(addr) {
				return true
			}
		}
		return false
	})
}

// ParseNetworks parses a comma separated list of CIDRs or bare addresses
func ParseNetworks(list string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.Contains(item, "/") {
			addr, err := netip.ParseAddr(item)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(item)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, p.Masked())
	}
	return prefixes, nil
}

// parseRemoteAddr accepts both "host:port" and a bare host, as found in
// http.Request.RemoteAddr
func parseRemoteAddr(remoteAddr string) (netip.Addr, bool) {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	// strip IPv6 zone
	if i := strings.IndexByte(host, '%'); i >= 0 {
		host = host[:i]
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
