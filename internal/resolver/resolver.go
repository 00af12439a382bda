package resolver

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// ContextDialer is satisfied by *net.Dialer and SOCKS5 dialers from golang.org/x/net/proxy.
type ContextDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// IsSOCKS5 reports whether proxyURL selects SOCKS5 tunnelling.
func IsSOCKS5(proxyURL string) bool {
	return strings.HasPrefix(proxyURL, "socks5://")
}

// NewDialer returns a dialer for outbound TCP connections.
//
// When proxyURL is a socks5:// URL, connections are made through the proxy.
// Otherwise a plain *net.Dialer with the given connect timeout is returned;
// HTTP(S) proxies only apply to the RDAP client.
func NewDialer(proxyURL string, timeout time.Duration) (ContextDialer, error) {
	direct := &net.Dialer{Timeout: timeout}
	if !IsSOCKS5(proxyURL) {
		return direct, nil
	}

	host := strings.TrimPrefix(proxyURL, "socks5://")
	dialer, err := proxy.SOCKS5("tcp", host, nil, direct)
	if err != nil {
		return nil, fmt.Errorf("creating SOCKS5 dialer: %w", err)
	}

	// proxy.SOCKS5 returns a ContextDialer; type-assert to get DialContext.
	ctxDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS5 dialer does not implement ContextDialer")
	}
	return ctxDialer, nil
}

// NewResolver returns a *net.Resolver appropriate for the given proxy URL.
//
// When proxyURL is empty or not socks5://, the platform resolver is returned
// (nil Dial field). Otherwise DNS queries are tunnelled over TCP through the
// SOCKS5 proxy.
func NewResolver(proxyURL string) (*net.Resolver, error) {
	if !IsSOCKS5(proxyURL) {
		return &net.Resolver{}, nil
	}

	dialer, err := NewDialer(proxyURL, 0)
	if err != nil {
		return nil, fmt.Errorf("creating SOCKS5 dialer for DNS: %w", err)
	}

	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, _, address string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp", address)
		},
	}, nil
}
