// Package rdap implements the default Ownership Resolver backend: an RDAP
// query for the IP network that contains an address.
package rdap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	"github.com/tbckr/nsolver/internal/apperr"
	"github.com/tbckr/nsolver/internal/output"
	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/services"
)

const (
	// Name is the backend identifier.
	Name = "rdap"
	// PAP is the PAP activity level for RDAP (third-party registry).
	PAP = pap.AMBER
	// DefaultBaseURL redirects to the authoritative RIR for any address.
	DefaultBaseURL = "https://rdap.org"
	// DefaultTimeout bounds a single lookup including redirects.
	DefaultTimeout = 10 * time.Second
)

// ipNetwork is the subset of an RDAP IP network object (RFC 9083 §5.4) nsolver reads.
type ipNetwork struct {
	ObjectClassName string `json:"objectClassName"`
	Handle          string `json:"handle"`
	Name            string `json:"name"`
	StartAddress    string `json:"startAddress"`
	EndAddress      string `json:"endAddress"`
}

// Service queries an RDAP server for IP network ownership.
type Service struct {
	client  *req.Client
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
}

var _ services.OwnerLookup = (*Service)(nil)

// NewService creates a new RDAP backend. An empty baseURL selects
// DefaultBaseURL; a zero timeout selects DefaultTimeout.
func NewService(client *req.Client, baseURL string, timeout time.Duration, logger *slog.Logger) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger,
	}
}

// Name returns the backend identifier.
func (s *Service) Name() string { return Name }

// PAP returns the PAP activity level for RDAP lookups.
func (s *Service) PAP() pap.Level { return PAP }

// LookupOwner returns the name of the RDAP network object containing ip.
func (s *Service) LookupOwner(ctx context.Context, ip string) (string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", apperr.NewProbeError(apperr.ProbeOwner, ip, apperr.KindMalformed,
			fmt.Errorf("%w: must be an IP address", apperr.ErrInvalidInput))
	}

	if err := ctx.Err(); err != nil {
		return "", apperr.NewProbeError(apperr.ProbeOwner, ip, "", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/ip/%s", s.baseURL, parsed.String())
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/rdap+json").
		Get(url)
	if err != nil {
		return "", apperr.NewProbeError(apperr.ProbeOwner, ip, requestKind(err),
			fmt.Errorf("%w: rdap request error: %w", apperr.ErrRequestFailed, err))
	}
	if !resp.IsSuccessState() {
		body := resp.String()
		if len(body) > 200 {
			body = body[:200] + "..."
		}
		return "", apperr.NewProbeError(apperr.ProbeOwner, ip, apperr.KindHTTPStatus,
			fmt.Errorf("%w: rdap returned HTTP %d: %q", apperr.ErrRequestFailed, resp.StatusCode, body))
	}

	var network ipNetwork
	if err := json.Unmarshal(resp.Bytes(), &network); err != nil {
		return "", apperr.NewProbeError(apperr.ProbeOwner, ip, apperr.KindMalformed,
			fmt.Errorf("decoding rdap response: %w", err))
	}

	name := output.Clean(network.Name)
	if name == "" {
		return "", apperr.NewProbeError(apperr.ProbeOwner, ip, apperr.KindMissingField,
			errors.New("rdap response has no network name"))
	}
	s.logger.Debug("rdap owner resolved", "ip", ip, "name", name, "handle", network.Handle)
	return name, nil
}

// requestKind classifies a transport-level request error.
func requestKind(err error) apperr.Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return apperr.KindCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.KindTimeout
	}
	return apperr.KindNetwork
}
