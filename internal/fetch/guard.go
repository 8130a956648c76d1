package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// Resolver looks up the addresses of a host. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

var blockedSuffixes = []string{".localhost", ".local", ".internal", ".arpa"}

var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"), // carrier-grade NAT
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("64:ff9b::/96"),
}

// guard rejects hosts that resolve to loopback, private or link-local
// addresses so cited URLs cannot be used to reach internal services.
type guard struct {
	resolver     Resolver
	allowPrivate bool
}

func (g guard) check(ctx context.Context, host string) error {
	if g.allowPrivate {
		return nil
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return &Error{Kind: InvalidURL, Err: fmt.Errorf("missing host")}
	}
	if blockedHostname(host) {
		return &Error{Kind: Blocked, Err: fmt.Errorf("host %s is internal", host)}
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if blockedAddr(addr) {
			return &Error{Kind: Blocked, Err: fmt.Errorf("address %s is not public", addr)}
		}
		return nil
	}

	addrs, err := g.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return &Error{Kind: Timeout, Err: fmt.Errorf("resolving %s: %w", host, err)}
		}
		return &Error{Kind: Unreachable, Err: fmt.Errorf("resolving %s: %w", host, err)}
	}
	for _, a := range addrs {
		addr, ok := netip.AddrFromSlice(a.IP)
		if !ok || blockedAddr(addr) {
			return &Error{Kind: Blocked, Err: fmt.Errorf("host %s resolves to non-public address %s", host, a.IP)}
		}
	}
	return nil
}

func blockedHostname(host string) bool {
	if host == "localhost" {
		return true
	}
	for _, s := range blockedSuffixes {
		if strings.HasSuffix(host, s) {
			return true
		}
	}
	return false
}

func blockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() || addr.IsMulticast() {
		return true
	}
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
