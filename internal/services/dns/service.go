// Package dns implements the Address Resolver: single A, AAAA and CNAME
// queries against the system nameserver.
package dns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	mdns "github.com/miekg/dns"

	"github.com/tbckr/nsolver/internal/apperr"
	"github.com/tbckr/nsolver/internal/output"
	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/resolver"
	"github.com/tbckr/nsolver/internal/services"
)

const (
	// Name is the service identifier.
	Name = "dns"
	// PAP is the PAP activity level for DNS resolution.
	PAP = pap.GREEN
)

// RecordType is one of the record types the Address Resolver queries.
type RecordType string

// Supported record types.
const (
	TypeA     RecordType = "A"
	TypeAAAA  RecordType = "AAAA"
	TypeCNAME RecordType = "CNAME"
)

// RecordTypes lists the supported record types in query order.
var RecordTypes = []RecordType{TypeA, TypeAAAA, TypeCNAME}

func (t RecordType) qtype() (uint16, bool) {
	switch t {
	case TypeA:
		return mdns.TypeA, true
	case TypeAAAA:
		return mdns.TypeAAAA, true
	case TypeCNAME:
		return mdns.TypeCNAME, true
	default:
		return 0, false
	}
}

// Service resolves DNS records using the injected exchanger.
type Service struct {
	exchanger resolver.Exchanger
	logger    *slog.Logger
}

// NewService creates a new DNS service with the given exchanger and logger.
func NewService(exchanger resolver.Exchanger, logger *slog.Logger) *Service {
	return &Service{exchanger: exchanger, logger: logger}
}

// Name returns the service identifier.
func (s *Service) Name() string { return Name }

// PAP returns the PAP activity level for the DNS service.
func (s *Service) PAP() pap.Level { return PAP }

// AggregateResults combines multiple DNS results into a MultiResult.
func (s *Service) AggregateResults(results []services.Result) services.Result {
	mr := &MultiResult{}
	mr.Append(results...)
	return mr
}

// Run resolves A, AAAA and CNAME records for domain.
// Partial results are returned when individual record type lookups fail.
func (s *Service) Run(ctx context.Context, domain string) (services.Result, error) {
	result := &Result{Input: output.StripANSI(domain)}
	for _, rtype := range RecordTypes {
		values, err := s.Resolve(ctx, domain, rtype)
		if err != nil {
			s.logger.Debug("lookup failed", "domain", domain, "type", rtype, "kind", apperr.KindOf(err), "error", err)
		}
		result.set(rtype, values)
	}
	return result, nil
}

// Resolve issues a single query of rtype for domain.
//
// It returns the answer values in server order. An empty slice with a nil
// error means the name exists but has no records of that type. Every failure
// is an *apperr.ProbeError; Resolve never retries.
func (s *Service) Resolve(ctx context.Context, domain string, rtype RecordType) ([]string, error) {
	qtype, ok := rtype.qtype()
	if !ok {
		return nil, apperr.NewProbeError(apperr.ProbeDNS, domain, apperr.KindMalformed,
			fmt.Errorf("%w: unsupported record type %q", apperr.ErrInvalidInput, rtype))
	}
	if _, ok := mdns.IsDomainName(domain); !ok || strings.TrimSpace(domain) == "" {
		return nil, apperr.NewProbeError(apperr.ProbeDNS, domain, apperr.KindMalformed,
			fmt.Errorf("%w: not a valid domain name", apperr.ErrInvalidInput))
	}

	m := new(mdns.Msg)
	m.SetQuestion(mdns.Fqdn(domain), qtype)

	resp, err := s.exchanger.Exchange(ctx, m)
	if err != nil {
		return nil, apperr.NewProbeError(apperr.ProbeDNS, domain, exchangeKind(err), err)
	}

	switch resp.Rcode {
	case mdns.RcodeSuccess:
	case mdns.RcodeNameError:
		return nil, apperr.NewProbeError(apperr.ProbeDNS, domain, apperr.KindNXDomain,
			fmt.Errorf("%s query returned NXDOMAIN", rtype))
	default:
		return nil, apperr.NewProbeError(apperr.ProbeDNS, domain, apperr.KindServFail,
			fmt.Errorf("%s query returned %s", rtype, mdns.RcodeToString[resp.Rcode]))
	}

	var values []string
	for _, rr := range resp.Answer {
		switch v := rr.(type) {
		case *mdns.A:
			if qtype == mdns.TypeA {
				values = append(values, v.A.String())
			}
		case *mdns.AAAA:
			if qtype == mdns.TypeAAAA {
				values = append(values, v.AAAA.String())
			}
		case *mdns.CNAME:
			if qtype == mdns.TypeCNAME {
				values = append(values, output.StripANSI(v.Target))
			}
		}
	}
	return values, nil
}

// exchangeKind classifies a transport-level exchange error.
func exchangeKind(err error) apperr.Kind {
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
	if errors.Is(err, mdns.ErrId) || errors.Is(err, mdns.ErrShortRead) || errors.Is(err, mdns.ErrBuf) {
		return apperr.KindMalformed
	}
	return apperr.KindNetwork
}
