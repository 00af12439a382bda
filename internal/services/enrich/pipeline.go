// Package enrich implements the Domain Enrichment Pipeline: for one domain
// it fans out address resolution, per-address ownership lookups and
// certificate inspection, and merges the outcomes into a Record.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tbckr/nsolver/internal/apperr"
	"github.com/tbckr/nsolver/internal/metrics"
	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/services"
	"github.com/tbckr/nsolver/internal/services/dns"
)

// Name is the service identifier.
const Name = "enrich"

// DefaultOwnerConcurrency bounds parallel ownership lookups per domain.
const DefaultOwnerConcurrency = 4

// AddressResolver resolves one record type for a domain.
type AddressResolver interface {
	Resolve(ctx context.Context, domain string, rtype dns.RecordType) ([]string, error)
	PAP() pap.Level
}

// CertInspector returns the subject CN presented by a domain.
type CertInspector interface {
	Inspect(ctx context.Context, domain string) (string, error)
	PAP() pap.Level
}

// Options tunes a Pipeline.
type Options struct {
	// PAPLimit skips probes more target-facing than the limit.
	PAPLimit pap.Level
	// OwnerConcurrency bounds parallel ownership lookups per domain.
	OwnerConcurrency int
	// OwnerIPv6 also looks up owners of AAAA addresses.
	OwnerIPv6 bool
	// Defang rewrites domains and addresses in aggregated output.
	Defang bool
	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// Pipeline enriches domains.
type Pipeline struct {
	addrs  AddressResolver
	owners services.OwnerLookup
	certs  CertInspector
	opts   Options
	logger *slog.Logger
}

var _ services.Service = (*Pipeline)(nil)

// New creates a Pipeline. A zero OwnerConcurrency selects DefaultOwnerConcurrency.
func New(addrs AddressResolver, owners services.OwnerLookup, certs CertInspector, logger *slog.Logger, opts Options) *Pipeline {
	if opts.OwnerConcurrency <= 0 {
		opts.OwnerConcurrency = DefaultOwnerConcurrency
	}
	return &Pipeline{addrs: addrs, owners: owners, certs: certs, opts: opts, logger: logger}
}

// Name returns the service identifier.
func (p *Pipeline) Name() string { return Name }

// PAP returns the most target-facing level among the probes that will run.
func (p *Pipeline) PAP() pap.Level {
	level := pap.RED
	for _, l := range []pap.Level{p.addrs.PAP(), p.owners.PAP(), p.certs.PAP()} {
		if pap.Allows(p.opts.PAPLimit, l) && l > level {
			level = l
		}
	}
	return level
}

// Run adapts Enrich to services.Service. A canceled run returns the canceled
// record together with the context error.
func (p *Pipeline) Run(ctx context.Context, domain string) (services.Result, error) {
	p.opts.Metrics.WorkerStarted()
	defer p.opts.Metrics.WorkerDone()

	rec := p.Enrich(ctx, domain)
	if rec.Canceled {
		return rec, ctx.Err()
	}
	return rec, nil
}

// AggregateResults combines records into a MultiResult carrying the
// pipeline's rendering options.
func (p *Pipeline) AggregateResults(results []services.Result) services.Result {
	mr := &MultiResult{IPv6Owners: p.opts.OwnerIPv6, Defang: p.opts.Defang}
	mr.Append(results...)
	return mr
}

// Canceled returns the wholesale-N/A record for a domain that was never
// enriched.
func Canceled(domain string) *Record {
	return canceledRecord(domain)
}

// recorder collects sub-probe failures from concurrent goroutines.
type recorder struct {
	mu       sync.Mutex
	failures []Failure
}

func (r *recorder) add(err error) {
	var pe *apperr.ProbeError
	f := Failure{Kind: apperr.KindOf(err), Error: err.Error()}
	if errors.As(err, &pe) {
		f.Probe, f.Target = pe.Probe, pe.Target
	}
	r.mu.Lock()
	r.failures = append(r.failures, f)
	r.mu.Unlock()
}

// Enrich runs every allowed probe for domain and merges the outcomes. It
// never fails: sub-probe failures degrade their field to NA and are listed
// in Record.Failures. If ctx is canceled before the probes finish, the
// record is marked Canceled and carries no partial data.
func (p *Pipeline) Enrich(ctx context.Context, domain string) *Record {
	if ctx.Err() != nil {
		p.opts.Metrics.ObserveDomain(true)
		return canceledRecord(domain)
	}

	rec := &Record{Domain: domain}
	fails := &recorder{}

	var wg sync.WaitGroup
	wg.Go(func() { rec.A, rec.Owners = p.resolveWithOwners(ctx, domain, dns.TypeA, true, fails) })
	wg.Go(func() {
		var owners []string
		rec.AAAA, owners = p.resolveWithOwners(ctx, domain, dns.TypeAAAA, p.opts.OwnerIPv6, fails)
		if p.opts.OwnerIPv6 {
			rec.IPv6Owners = owners
			if rec.IPv6Owners == nil {
				rec.IPv6Owners = []string{}
			}
		}
	})
	wg.Go(func() { rec.CNAME = p.resolve(ctx, domain, dns.TypeCNAME, fails) })
	wg.Go(func() { rec.CommonName = p.inspect(ctx, domain, fails) })
	wg.Wait()

	if ctx.Err() != nil {
		p.logger.Debug("enrichment canceled", "domain", domain)
		p.opts.Metrics.ObserveDomain(true)
		return canceledRecord(domain)
	}
	rec.Failures = fails.failures
	p.opts.Metrics.ObserveDomain(false)
	return rec
}

func (p *Pipeline) blocked(probe apperr.Probe, target string, level pap.Level) error {
	if pap.Allows(p.opts.PAPLimit, level) {
		return nil
	}
	return apperr.NewProbeError(probe, target, apperr.KindBlocked,
		fmt.Errorf("%w: %s probe requires %s, limit is %s", apperr.ErrPAPBlocked, probe, level, p.opts.PAPLimit))
}

// resolve runs one address query and absorbs its failure.
func (p *Pipeline) resolve(ctx context.Context, domain string, rtype dns.RecordType, fails *recorder) []string {
	if err := p.blocked(apperr.ProbeDNS, domain, p.addrs.PAP()); err != nil {
		p.fail(domain, err, fails)
		return nil
	}
	start := time.Now()
	values, err := p.addrs.Resolve(ctx, domain, rtype)
	p.opts.Metrics.ObserveProbe(string(apperr.ProbeDNS), start, err)
	if err != nil {
		p.fail(domain, err, fails)
		return nil
	}
	return values
}

// resolveWithOwners resolves rtype and, when withOwners is set, looks up the
// owner of every returned address. The owner slice is aligned with the
// address slice.
func (p *Pipeline) resolveWithOwners(ctx context.Context, domain string, rtype dns.RecordType, withOwners bool, fails *recorder) ([]string, []string) {
	addrs := p.resolve(ctx, domain, rtype, fails)
	if !withOwners || len(addrs) == 0 {
		return addrs, nil
	}
	return addrs, p.lookupOwners(ctx, domain, addrs, fails)
}

// lookupOwners fans out one lookup per distinct address, bounded by
// OwnerConcurrency. Duplicate addresses share a lookup.
func (p *Pipeline) lookupOwners(ctx context.Context, domain string, addrs []string, fails *recorder) []string {
	owners := make([]string, len(addrs))
	if err := p.blocked(apperr.ProbeOwner, domain, p.owners.PAP()); err != nil {
		p.fail(domain, err, fails)
		for i := range owners {
			owners[i] = NA
		}
		return owners
	}

	distinct := make(map[string][]int, len(addrs))
	order := make([]string, 0, len(addrs))
	for i, ip := range addrs {
		if _, seen := distinct[ip]; !seen {
			order = append(order, ip)
		}
		distinct[ip] = append(distinct[ip], i)
	}

	var g errgroup.Group
	g.SetLimit(p.opts.OwnerConcurrency)
	for _, ip := range order {
		g.Go(func() error {
			start := time.Now()
			name, err := p.owners.LookupOwner(ctx, ip)
			p.opts.Metrics.ObserveProbe(string(apperr.ProbeOwner), start, err)
			if err != nil {
				p.fail(domain, err, fails)
				name = NA
			}
			// Each goroutine writes disjoint indices.
			for _, i := range distinct[ip] {
				owners[i] = name
			}
			return nil
		})
	}
	_ = g.Wait()
	return owners
}

func (p *Pipeline) inspect(ctx context.Context, domain string, fails *recorder) string {
	if err := p.blocked(apperr.ProbeCert, domain, p.certs.PAP()); err != nil {
		p.fail(domain, err, fails)
		return ""
	}
	start := time.Now()
	cn, err := p.certs.Inspect(ctx, domain)
	p.opts.Metrics.ObserveProbe(string(apperr.ProbeCert), start, err)
	if err != nil {
		p.fail(domain, err, fails)
		return ""
	}
	return cn
}

func (p *Pipeline) fail(domain string, err error, fails *recorder) {
	fails.add(err)
	var probe apperr.Probe
	var pe *apperr.ProbeError
	if errors.As(err, &pe) {
		probe = pe.Probe
	}
	p.logger.Debug("probe failed", "domain", domain, "probe", probe, "kind", apperr.KindOf(err), "error", err)
}
