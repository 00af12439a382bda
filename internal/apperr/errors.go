package apperr

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when the provided input fails validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrRequestFailed is returned by HTTP-based lookups when the request fails at the
// transport level or the server responds with a non-2xx status code.
var ErrRequestFailed = errors.New("request failed")

// ErrPAPBlocked is returned when a probe's PAP level exceeds the user-defined limit.
var ErrPAPBlocked = errors.New("PAP limit exceeded")

// Probe sentinels. Every *ProbeError matches exactly one of them via errors.Is.
var (
	ErrResolution  = errors.New("resolution failure")
	ErrOwnership   = errors.New("ownership lookup failure")
	ErrCertificate = errors.New("certificate failure")
)

// Probe identifies which enrichment probe produced a failure.
type Probe string

// Probe names.
const (
	ProbeDNS   Probe = "dns"
	ProbeOwner Probe = "owner"
	ProbeCert  Probe = "cert"
)

// Kind classifies why a probe failed.
type Kind string

// Failure kinds shared by all probes.
const (
	KindNXDomain     Kind = "nxdomain"
	KindServFail     Kind = "servfail"
	KindTimeout      Kind = "timeout"
	KindNetwork      Kind = "network"
	KindMalformed    Kind = "malformed"
	KindHTTPStatus   Kind = "http_status"
	KindMissingField Kind = "missing_field"
	KindHandshake    Kind = "handshake"
	KindCanceled     Kind = "canceled"
	KindBlocked      Kind = "blocked"
)

// ProbeError is the typed failure returned by every resolver in the
// enrichment pipeline.
type ProbeError struct {
	Probe  Probe
	Target string
	Kind   Kind
	Err    error
}

// NewProbeError builds a ProbeError. If kind is empty it is derived from err.
func NewProbeError(probe Probe, target string, kind Kind, err error) *ProbeError {
	if kind == "" {
		kind = kindFromContext(err)
	}
	return &ProbeError{Probe: probe, Target: target, Kind: kind, Err: err}
}

func (e *ProbeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s probe failed for %q: %s", e.Probe, e.Target, e.Kind)
	}
	return fmt.Sprintf("%s probe failed for %q (%s): %v", e.Probe, e.Target, e.Kind, e.Err)
}

// Unwrap exposes both the probe sentinel and the underlying cause.
func (e *ProbeError) Unwrap() []error {
	errs := []error{e.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *ProbeError) sentinel() error {
	switch e.Probe {
	case ProbeDNS:
		return ErrResolution
	case ProbeOwner:
		return ErrOwnership
	case ProbeCert:
		return ErrCertificate
	default:
		return ErrRequestFailed
	}
}

// KindOf returns the failure kind carried by err, or "" if err is nil or not
// a *ProbeError.
func KindOf(err error) Kind {
	var pe *ProbeError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// kindFromContext maps context errors to their kinds and everything else to
// KindNetwork.
func kindFromContext(err error) Kind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindNetwork
	}
}
