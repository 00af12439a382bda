// Package cert implements the Certificate Inspector: it completes a TLS
// handshake with a domain on port 443 and reports the leaf certificate's
// subject common name.
package cert

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/tbckr/nsolver/internal/apperr"
	"github.com/tbckr/nsolver/internal/output"
	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/resolver"
)

const (
	// Name is the probe identifier.
	Name = "cert"
	// PAP is GREEN: the handshake reaches the target directly.
	PAP = pap.GREEN
	// DefaultPort is the HTTPS port.
	DefaultPort = "443"
	// DefaultTimeout bounds connect and handshake together.
	DefaultTimeout = 5 * time.Second
)

// Inspector fetches certificate identities.
type Inspector struct {
	dialer   resolver.ContextDialer
	timeout  time.Duration
	port     string
	insecure bool
	roots    *x509.CertPool
	logger   *slog.Logger
}

// Option customises an Inspector.
type Option func(*Inspector)

// WithInsecure skips chain and hostname verification.
func WithInsecure(insecure bool) Option {
	return func(i *Inspector) { i.insecure = insecure }
}

// WithRootCAs replaces the system trust store.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(i *Inspector) { i.roots = pool }
}

// WithPort overrides the TLS port.
func WithPort(port string) Option {
	return func(i *Inspector) { i.port = port }
}

// NewInspector creates a Certificate Inspector. A zero timeout selects
// DefaultTimeout.
func NewInspector(dialer resolver.ContextDialer, timeout time.Duration, logger *slog.Logger, opts ...Option) *Inspector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	i := &Inspector{
		dialer:  dialer,
		timeout: timeout,
		port:    DefaultPort,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Name returns the probe identifier.
func (i *Inspector) Name() string { return Name }

// PAP returns the PAP activity level of the handshake.
func (i *Inspector) PAP() pap.Level { return PAP }

// Inspect returns the subject CN of the leaf certificate presented by domain.
func (i *Inspector) Inspect(ctx context.Context, domain string) (string, error) {
	if domain == "" {
		return "", apperr.NewProbeError(apperr.ProbeCert, domain, apperr.KindMalformed,
			fmt.Errorf("%w: domain must not be empty", apperr.ErrInvalidInput))
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	conn, err := i.dialer.DialContext(ctx, "tcp", net.JoinHostPort(domain, i.port))
	if err != nil {
		return "", apperr.NewProbeError(apperr.ProbeCert, domain, classify(err, apperr.KindNetwork), err)
	}
	defer func() { _ = conn.Close() }()

	tlsConn := tls.Client(conn, &tls.Config{
		ServerName:         domain,
		RootCAs:            i.roots,
		InsecureSkipVerify: i.insecure, //nolint:gosec // opt-in via --tls-insecure
		MinVersion:         tls.VersionTLS12,
	})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return "", apperr.NewProbeError(apperr.ProbeCert, domain, classify(err, apperr.KindHandshake), err)
	}

	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return "", apperr.NewProbeError(apperr.ProbeCert, domain, apperr.KindMissingField,
			errors.New("server presented no certificate"))
	}
	leaf := state.PeerCertificates[0]
	cn := output.Clean(leaf.Subject.CommonName)
	if cn == "" {
		return "", apperr.NewProbeError(apperr.ProbeCert, domain, apperr.KindMissingField,
			errors.New("leaf certificate has no subject common name"))
	}
	i.logger.Debug("certificate inspected", "domain", domain, "cn", cn, "not_after", leaf.NotAfter)
	return cn, nil
}

// classify maps context and timeout errors to their kinds, anything else to fallback.
func classify(err error, fallback apperr.Kind) apperr.Kind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.KindTimeout
	case errors.Is(err, context.Canceled):
		return apperr.KindCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.KindTimeout
	}
	// TLS alerts surface as *net.OpError too; only socket I/O counts as network.
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial", "read", "write":
			return apperr.KindNetwork
		}
	}
	if errors.Is(err, io.EOF) {
		return apperr.KindNetwork
	}
	return fallback
}
