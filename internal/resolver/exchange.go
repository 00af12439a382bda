package resolver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// DefaultResolvConf is where the system nameservers are read from.
const DefaultResolvConf = "/etc/resolv.conf"

// fallbackServer is used when the system configuration lists no nameserver.
const fallbackServer = "127.0.0.1:53"

// Exchanger sends one DNS message and returns the server's reply.
type Exchanger interface {
	Exchange(ctx context.Context, m *dns.Msg) (*dns.Msg, error)
}

// SystemServer returns host:port of the first nameserver listed in path.
// Unreadable or empty configurations fall back to 127.0.0.1:53.
func SystemServer(path string) string {
	cfg, err := dns.ClientConfigFromFile(path)
	if err != nil || len(cfg.Servers) == 0 {
		return fallbackServer
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port)
}

// Upstream exchanges messages with a single nameserver.
type Upstream struct {
	server  string
	timeout time.Duration
	udp     *dns.Client
	tcp     *dns.Client
	// tunnel is set when queries must travel through a SOCKS5 proxy.
	tunnel ContextDialer
}

var _ Exchanger = (*Upstream)(nil)

// NewUpstream returns an Upstream for server (host:port). A non-nil tunnel
// forces DNS-over-TCP through that dialer.
func NewUpstream(server string, timeout time.Duration, tunnel ContextDialer) *Upstream {
	return &Upstream{
		server:  server,
		timeout: timeout,
		udp:     &dns.Client{Net: "udp", Timeout: timeout},
		tcp:     &dns.Client{Net: "tcp", Timeout: timeout},
		tunnel:  tunnel,
	}
}

// NewSystemUpstream returns an Upstream for the system nameserver, tunnelled
// through proxyURL when it is a socks5:// URL.
func NewSystemUpstream(proxyURL string, timeout time.Duration) (*Upstream, error) {
	var tunnel ContextDialer
	if IsSOCKS5(proxyURL) {
		d, err := NewDialer(proxyURL, timeout)
		if err != nil {
			return nil, err
		}
		tunnel = d
	}
	return NewUpstream(SystemServer(DefaultResolvConf), timeout, tunnel), nil
}

// Server returns the nameserver address queries are sent to.
func (u *Upstream) Server() string { return u.server }

// Exchange sends m once. A truncated UDP reply is re-asked over TCP.
func (u *Upstream) Exchange(ctx context.Context, m *dns.Msg) (*dns.Msg, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	if u.tunnel != nil {
		return u.exchangeTunnel(ctx, m)
	}

	resp, _, err := u.udp.ExchangeContext(ctx, m, u.server)
	if err != nil {
		return nil, err
	}
	if resp.Truncated {
		resp, _, err = u.tcp.ExchangeContext(ctx, m, u.server)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (u *Upstream) exchangeTunnel(ctx context.Context, m *dns.Msg) (*dns.Msg, error) {
	conn, err := u.tunnel.DialContext(ctx, "tcp", u.server)
	if err != nil {
		return nil, fmt.Errorf("dialing %s through proxy: %w", u.server, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, err
		}
	}

	co := &dns.Conn{Conn: conn}
	if err := co.WriteMsg(m); err != nil {
		return nil, err
	}
	resp, err := co.ReadMsg()
	if err != nil {
		return nil, err
	}
	if resp.Id != m.Id {
		return nil, dns.ErrId
	}
	return resp, nil
}
