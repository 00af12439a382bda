// Package services defines shared interfaces and types used across probe implementations.
package services

import (
	"context"

	"github.com/tbckr/nsolver/internal/pap"
)

// TXTResolver abstracts net.Resolver for TXT-based lookups (Team Cymru).
// *net.Resolver satisfies this interface directly.
type TXTResolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// OwnerLookup is an Ownership Resolver backend. LookupOwner returns the
// registered network name for ip, or an *apperr.ProbeError.
type OwnerLookup interface {
	Name() string
	PAP() pap.Level
	LookupOwner(ctx context.Context, ip string) (string, error)
}
