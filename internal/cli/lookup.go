package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbckr/nsolver/internal/apperr"
	"github.com/tbckr/nsolver/internal/input"
	"github.com/tbckr/nsolver/internal/output"
	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/services"
	"github.com/tbckr/nsolver/internal/services/dns"
	"github.com/tbckr/nsolver/internal/services/enrich"
	"github.com/tbckr/nsolver/internal/worker"
)

const (
	probeAll = "all"
	probeDNS = "dns"
)

func newLookupCmd(d *deps) *cobra.Command {
	var probe string

	cmd := &cobra.Command{
		Use:   "lookup [domain...]",
		Short: "Enrich domains given as arguments or on stdin and print the result",
		Example: `  nsolver lookup example.com
  cat domains.txt | nsolver lookup --format csv
  nsolver lookup --probe dns example.com example.org`,
		GroupID: "enrich",
		RunE: func(cmd *cobra.Command, args []string) error {
			domains, err := resolveInputs(cmd, args)
			if err != nil {
				return err
			}
			switch probe {
			case probeAll:
				return runLookup(cmd, d, domains)
			case probeDNS:
				return runDNSLookup(cmd, d, domains)
			default:
				return errInvalidFlag("probe", fmt.Errorf("%q: must be %q or %q", probe, probeAll, probeDNS))
			}
		},
	}

	cmd.Flags().StringVar(&probe, "probe", probeAll, "probes to run: all or dns")
	_ = cmd.RegisterFlagCompletionFunc("probe", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{probeAll, probeDNS}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// resolveInputs returns the positional args, or the domains piped on stdin.
// An interactive stdin with no args is an error.
func resolveInputs(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	r := cmd.InOrStdin()
	if output.IsTerminal(r) {
		return nil, fmt.Errorf("no input: pass a domain or pipe domains on stdin")
	}
	domains, err := input.Read(r)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return domains, nil
}

func runLookup(cmd *cobra.Command, d *deps, domains []string) (err error) {
	ctx := cmd.Context()
	format := d.format(output.FormatTable)
	pipeline, err := d.newPipeline(format)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := d.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	results := worker.Run(ctx, pipeline, domains, d.cfg.Concurrency)
	mr := pipeline.AggregateResults(outputs(results)).(*enrich.MultiResult)
	if err := writeResult(cmd.OutOrStdout(), format, mr); err != nil {
		return err
	}
	if err := d.writeMetrics(); err != nil {
		return err
	}
	if n := mr.Canceled(); n > 0 {
		return errInterrupted(n, len(domains), cancelCause(ctx))
	}
	return nil
}

func runDNSLookup(cmd *cobra.Command, d *deps, domains []string) error {
	ctx := cmd.Context()
	if !pap.Allows(d.papLevel, dns.PAP) {
		return fmt.Errorf("%w: dns requires PAP %s, limit is %s", apperr.ErrPAPBlocked, dns.PAP, d.papLevel)
	}
	svc, err := d.newDNSService()
	if err != nil {
		return err
	}

	format := d.format(output.FormatTable)
	results := worker.Run(ctx, svc, domains, d.cfg.Concurrency)

	var outs []services.Result
	for _, r := range results {
		if r.Output != nil {
			outs = append(outs, r.Output)
		}
	}
	mr := svc.AggregateResults(outs).(*dns.MultiResult)
	if d.defang(format) {
		mr = mr.Defanged()
	}
	if err := writeResult(cmd.OutOrStdout(), format, mr); err != nil {
		return err
	}
	if err := d.writeMetrics(); err != nil {
		return err
	}
	if len(outs) < len(domains) {
		return errInterrupted(len(domains)-len(outs), len(domains), cancelCause(ctx))
	}
	return nil
}
