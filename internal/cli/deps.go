package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbckr/nsolver/internal/appdir"
	"github.com/tbckr/nsolver/internal/config"
	"github.com/tbckr/nsolver/internal/httpclient"
	"github.com/tbckr/nsolver/internal/metrics"
	"github.com/tbckr/nsolver/internal/output"
	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/resolver"
	"github.com/tbckr/nsolver/internal/services"
	"github.com/tbckr/nsolver/internal/services/asn"
	"github.com/tbckr/nsolver/internal/services/cert"
	"github.com/tbckr/nsolver/internal/services/dns"
	"github.com/tbckr/nsolver/internal/services/enrich"
	"github.com/tbckr/nsolver/internal/services/geoip"
	"github.com/tbckr/nsolver/internal/services/owner"
	"github.com/tbckr/nsolver/internal/services/rdap"
)

// deps holds fully-resolved runtime dependencies for a subcommand.
type deps struct {
	logger      *slog.Logger
	cfg         *config.Config
	papLevel    pap.Level
	ownerSource owner.Source
	metrics     *metrics.Metrics

	// closers release resources opened while building services.
	closers []func() error
}

// buildDeps loads the config and validates every value that does not depend
// on the subcommand.
func buildDeps(cmd *cobra.Command, stderr io.Writer) (*deps, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.Concurrency < 1 {
		return nil, errTooSmall("concurrency", cfg.Concurrency)
	}
	if cfg.OwnerConcurrency < 1 {
		return nil, errTooSmall("owner-concurrency", cfg.OwnerConcurrency)
	}
	timeouts := []struct {
		flag  string
		value time.Duration
	}{
		{"dns-timeout", cfg.DNSTimeout},
		{"rdap-timeout", cfg.RDAPTimeout},
		{"tls-timeout", cfg.TLSTimeout},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			return nil, errNonPositiveTimeout(t.flag, t.value)
		}
	}
	if cfg.Format != "" {
		if _, err := output.ParseFormat(cfg.Format); err != nil {
			return nil, errInvalidFlag("format", err)
		}
	}

	papLevel, err := pap.Parse(cfg.PAPLimit)
	if err != nil {
		return nil, errInvalidFlag("pap-limit", err)
	}
	source, err := owner.ParseSource(cfg.OwnerSource)
	if err != nil {
		return nil, errInvalidFlag("owner-source", err)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	return &deps{
		logger:      logger,
		cfg:         cfg,
		papLevel:    papLevel,
		ownerSource: source,
		metrics:     metrics.New(),
	}, nil
}

// format returns the configured output format, or fallback when none is set.
func (d *deps) format(fallback output.Format) output.Format {
	if d.cfg.Format == "" {
		return fallback
	}
	return output.Format(d.cfg.Format)
}

// defang reports whether output in format should be defanged.
func (d *deps) defang(format output.Format) bool {
	return output.ResolveDefang(d.papLevel, format, d.cfg.Defang)
}

// close releases everything registered in closers.
func (d *deps) close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c())
	}
	d.closers = nil
	return errors.Join(errs...)
}

// newDNSService creates the Address Resolver against the system nameserver.
func (d *deps) newDNSService() (*dns.Service, error) {
	upstream, err := resolver.NewSystemUpstream(d.cfg.Proxy, d.cfg.DNSTimeout)
	if err != nil {
		return nil, fmt.Errorf("creating DNS upstream: %w", err)
	}
	d.logger.Debug("dns upstream", "server", upstream.Server())
	return dns.NewService(upstream, d.logger), nil
}

// newOwnerLookup creates the configured ownership backend behind a
// memoizing cache.
func (d *deps) newOwnerLookup() (*owner.Cache, error) {
	var backend services.OwnerLookup
	switch d.ownerSource {
	case owner.SourceRDAP:
		client, err := httpclient.New(httpclient.Options{
			Proxy:          d.cfg.Proxy,
			UserAgent:      d.cfg.UserAgent,
			TLSFingerprint: d.cfg.TLSFingerprint,
			Timeout:        d.cfg.RDAPTimeout,
			Debug:          d.cfg.Verbose,
		}, d.logger)
		if err != nil {
			return nil, fmt.Errorf("creating HTTP client: %w", err)
		}
		backend = rdap.NewService(client, d.cfg.RDAPURL, d.cfg.RDAPTimeout, d.logger)
	case owner.SourceCymru:
		r, err := resolver.NewResolver(d.cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("creating DNS resolver: %w", err)
		}
		backend = asn.NewService(r, d.cfg.DNSTimeout, d.logger)
	case owner.SourceGeoIP:
		path := d.cfg.GeoIPDB
		if path == "" {
			p, err := appdir.GeoIPPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		svc, err := geoip.Open(path, d.logger)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, svc.Close)
		backend = svc
	default:
		return nil, fmt.Errorf("unsupported owner source %q", d.ownerSource)
	}
	return owner.NewCache(backend), nil
}

// newCertInspector creates the Certificate Inspector.
func (d *deps) newCertInspector() (*cert.Inspector, error) {
	dialer, err := resolver.NewDialer(d.cfg.Proxy, d.cfg.TLSTimeout)
	if err != nil {
		return nil, fmt.Errorf("creating TLS dialer: %w", err)
	}
	return cert.NewInspector(dialer, d.cfg.TLSTimeout, d.logger, cert.WithInsecure(d.cfg.TLSInsecure)), nil
}

// newPipeline wires the three probes into a Domain Enrichment Pipeline.
func (d *deps) newPipeline(format output.Format) (*enrich.Pipeline, error) {
	addrs, err := d.newDNSService()
	if err != nil {
		return nil, err
	}
	owners, err := d.newOwnerLookup()
	if err != nil {
		return nil, err
	}
	certs, err := d.newCertInspector()
	if err != nil {
		return nil, err
	}
	return enrich.New(addrs, owners, certs, d.logger, enrich.Options{
		PAPLimit:         d.papLevel,
		OwnerConcurrency: d.cfg.OwnerConcurrency,
		OwnerIPv6:        d.cfg.OwnerIPv6,
		Defang:           d.defang(format),
		Metrics:          d.metrics,
	}), nil
}

// writeMetrics writes the metrics file when one is configured.
func (d *deps) writeMetrics() error {
	if d.cfg.MetricsFile == "" {
		return nil
	}
	if err := d.metrics.WriteFile(d.cfg.MetricsFile); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	d.logger.Debug("metrics written", "path", d.cfg.MetricsFile)
	return nil
}

// writeResult formats and writes a service result to w.
func writeResult(w io.Writer, format output.Format, result any) error {
	if err := output.Write(w, format, result); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
