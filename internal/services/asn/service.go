// Package asn implements an Ownership Resolver backend on top of the Team
// Cymru IP-to-ASN DNS service.
package asn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/tbckr/nsolver/internal/apperr"
	"github.com/tbckr/nsolver/internal/output"
	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/services"
)

// Name is the backend identifier.
const Name = "cymru"

// PAP is the PAP activity level for Team Cymru lookups (third-party DNS zone).
const PAP = pap.AMBER

// cymruIPv4Template is the Team Cymru DNS suffix for IPv4 → ASN lookups.
const cymruIPv4Template = "%s.origin.asn.cymru.com"

// cymruIPv6Template is the Team Cymru DNS suffix for IPv6 → ASN lookups.
const cymruIPv6Template = "%s.origin6.asn.cymru.com"

// cymruASNTemplate is the Team Cymru DNS suffix for ASN → info lookups.
// Format: AS<number>.asn.cymru.com
const cymruASNTemplate = "%s.asn.cymru.com"

// Service resolves IP ownership via the Team Cymru DNS service.
type Service struct {
	resolver services.TXTResolver
	timeout  time.Duration
	logger   *slog.Logger
}

var _ services.OwnerLookup = (*Service)(nil)

// NewService creates a new Team Cymru backend. A positive timeout bounds each
// TXT query.
func NewService(resolver services.TXTResolver, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{resolver: resolver, timeout: timeout, logger: logger}
}

// Name returns the backend identifier.
func (s *Service) Name() string { return Name }

// PAP returns the PAP activity level for Cymru lookups.
func (s *Service) PAP() pap.Level { return PAP }

// Origin holds the announcement data Team Cymru publishes for an address.
type Origin struct {
	ASN         string `json:"asn,omitempty"`
	Prefix      string `json:"prefix,omitempty"`
	Country     string `json:"country,omitempty"`
	Registry    string `json:"registry,omitempty"`
	Description string `json:"description,omitempty"`
}

// Owner returns the AS description, falling back to the AS number when the
// description record is unavailable.
func (o *Origin) Owner() string {
	if o.Description != "" {
		return o.Description
	}
	return o.ASN
}

// LookupOwner returns the description of the AS announcing ip.
func (s *Service) LookupOwner(ctx context.Context, ip string) (string, error) {
	origin, err := s.Lookup(ctx, ip)
	if err != nil {
		return "", err
	}
	return origin.Owner(), nil
}

// Lookup resolves the originating AS for ip and enriches it with the AS
// description. A failed description lookup is not an error.
func (s *Service) Lookup(ctx context.Context, ip string) (*Origin, error) {
	reversed, isV6, err := reverseIP(ip)
	if err != nil {
		return nil, apperr.NewProbeError(apperr.ProbeOwner, ip, apperr.KindMalformed,
			fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err))
	}
	tmpl := cymruIPv4Template
	if isV6 {
		tmpl = cymruIPv6Template
	}

	txts, err := s.lookupTXT(ctx, fmt.Sprintf(tmpl, reversed))
	if err != nil {
		s.logger.Debug("Cymru IP lookup failed", "ip", ip, "error", err)
		return nil, apperr.NewProbeError(apperr.ProbeOwner, ip, lookupKind(err), err)
	}

	origin := &Origin{}
	if len(txts) > 0 {
		parseCymruIPRecord(origin, txts[0])
	}
	if origin.ASN == "" {
		return nil, apperr.NewProbeError(apperr.ProbeOwner, ip, apperr.KindMissingField,
			errors.New("cymru origin record has no AS number"))
	}
	s.enrichASN(ctx, origin)
	return origin, nil
}

// enrichASN fetches the description for an already-known ASN.
func (s *Service) enrichASN(ctx context.Context, origin *Origin) {
	txts, err := s.lookupTXT(ctx, fmt.Sprintf(cymruASNTemplate, origin.ASN))
	if err != nil {
		s.logger.Debug("Cymru ASN enrich failed", "asn", origin.ASN, "error", err)
		return
	}
	if len(txts) > 0 {
		parseCymruASNRecord(origin, txts[0])
	}
}

func (s *Service) lookupTXT(ctx context.Context, host string) ([]string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.resolver.LookupTXT(ctx, host)
}

// lookupKind classifies a resolver error.
func lookupKind(err error) apperr.Kind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.KindTimeout
	case errors.Is(err, context.Canceled):
		return apperr.KindCanceled
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return apperr.KindNXDomain
		case dnsErr.IsTimeout:
			return apperr.KindTimeout
		}
	}
	return apperr.KindNetwork
}

// parseCymruIPRecord parses a Team Cymru TXT record of the form:
// "15169 | 8.8.8.0/24 | US | arin | 1992-12-01"
func parseCymruIPRecord(origin *Origin, txt string) {
	parts := strings.Split(txt, "|")
	if asn := strings.TrimSpace(parts[0]); asn != "" {
		// Multi-origin prefixes list several space-separated ASNs; keep the first.
		origin.ASN = "AS" + strings.Fields(asn)[0]
	}
	if len(parts) >= 2 {
		origin.Prefix = output.Clean(parts[1])
	}
	if len(parts) >= 3 {
		origin.Country = output.Clean(parts[2])
	}
	if len(parts) >= 4 {
		origin.Registry = output.Clean(parts[3])
	}
}

// parseCymruASNRecord parses a Team Cymru TXT record of the form:
// "15169 | US | arin | 2000-03-30 | GOOGLE, US"
// The trailing ", CC" country suffix of the description is dropped; the
// country is kept in Origin.Country.
func parseCymruASNRecord(origin *Origin, txt string) {
	parts := strings.Split(txt, "|")
	if len(parts) < 5 {
		return
	}
	cc := output.Clean(parts[1])
	desc := output.Clean(parts[4])
	if cc != "" {
		desc = strings.TrimSpace(strings.TrimSuffix(desc, ", "+cc))
		if origin.Country == "" {
			origin.Country = cc
		}
	}
	origin.Description = desc
}

// reverseIP reverses an IP address for Team Cymru DNS queries.
// Returns the reversed form, whether it is IPv6, and any error.
// IPv4: octets reversed. IPv6: full expansion reversed by nibble.
func reverseIP(ip string) (string, bool, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", false, fmt.Errorf("invalid IP: %q", ip)
	}
	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.%d", v4[3], v4[2], v4[1], v4[0]), false, nil
	}
	v6 := parsed.To16()
	nibbles := make([]string, 0, 32)
	for _, b := range v6 {
		nibbles = append(nibbles, fmt.Sprintf("%x", b>>4), fmt.Sprintf("%x", b&0xf))
	}
	for i, j := 0, len(nibbles)-1; i < j; i, j = i+1, j-1 {
		nibbles[i], nibbles[j] = nibbles[j], nibbles[i]
	}
	return strings.Join(nibbles, "."), true, nil
}
