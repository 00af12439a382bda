// Package geoip implements an offline Ownership Resolver backend that reads
// the AS organization from a local MaxMind GeoLite2-ASN database.
package geoip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/tbckr/nsolver/internal/apperr"
	"github.com/tbckr/nsolver/internal/output"
	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/services"
)

// Name is the backend identifier.
const Name = "geoip"

// PAP is RED: the lookup never leaves the host.
const PAP = pap.RED

// Reader is the subset of *geoip2.Reader used by the backend.
type Reader interface {
	ASN(ip net.IP) (*geoip2.ASN, error)
}

// Service resolves IP ownership from an ASN database.
type Service struct {
	db     Reader
	closer func() error
	logger *slog.Logger
}

var _ services.OwnerLookup = (*Service)(nil)

// NewService wraps an already-open database reader.
func NewService(db Reader, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Open opens the MaxMind database at path. The caller must call Close.
func Open(path string, logger *slog.Logger) (*Service, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: geoip backend requires a database path (--geoip-db)", apperr.ErrInvalidInput)
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening geoip database %q: %w", path, err)
	}
	if dbType := db.Metadata().DatabaseType; dbType != "" {
		logger.Debug("geoip database opened", "path", path, "type", dbType)
	}
	return &Service{db: db, closer: db.Close, logger: logger}, nil
}

// Close releases the database when it was opened by Open.
func (s *Service) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// Name returns the backend identifier.
func (s *Service) Name() string { return Name }

// PAP returns the PAP activity level for local database lookups.
func (s *Service) PAP() pap.Level { return PAP }

// LookupOwner returns the AS organization recorded for ip.
func (s *Service) LookupOwner(ctx context.Context, ip string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.NewProbeError(apperr.ProbeOwner, ip, "", err)
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", apperr.NewProbeError(apperr.ProbeOwner, ip, apperr.KindMalformed,
			fmt.Errorf("%w: must be an IP address", apperr.ErrInvalidInput))
	}
	rec, err := s.db.ASN(parsed)
	if err != nil {
		return "", apperr.NewProbeError(apperr.ProbeOwner, ip, apperr.KindMalformed,
			fmt.Errorf("reading geoip record: %w", err))
	}
	org := ""
	if rec != nil {
		org = output.Clean(rec.AutonomousSystemOrganization)
	}
	if org == "" {
		return "", apperr.NewProbeError(apperr.ProbeOwner, ip, apperr.KindMissingField,
			errors.New("no AS organization in geoip database"))
	}
	s.logger.Debug("geoip owner resolved", "ip", ip, "asn", rec.AutonomousSystemNumber, "org", org)
	return org, nil
}
