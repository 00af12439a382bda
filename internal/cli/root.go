// Package cli provides the Cobra command tree and output wiring for nsolver.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbckr/nsolver/internal/config"
	"github.com/tbckr/nsolver/internal/input"
	"github.com/tbckr/nsolver/internal/output"
	"github.com/tbckr/nsolver/internal/services"
	"github.com/tbckr/nsolver/internal/services/enrich"
	"github.com/tbckr/nsolver/internal/validate"
	"github.com/tbckr/nsolver/internal/version"
	"github.com/tbckr/nsolver/internal/worker"
)

// newRootCmd builds the top-level command. Run without a subcommand it
// enriches every domain of --input-file into --output-file.
func newRootCmd() *cobra.Command {
	// d is populated by PersistentPreRunE before any RunE runs. Cobra only
	// executes the innermost PersistentPreRunE, so a subcommand that defines
	// its own hook must not use d.
	var d deps
	var inputFile, outputFile string

	cmd := &cobra.Command{
		Use:   "nsolver -i <input-file> -o <output-file>",
		Short: "Enrich a list of domains with DNS, IP ownership and TLS certificate data",
		Long: `nsolver resolves the A, AAAA and CNAME records of every domain in the input
file, looks up the owner of each IPv4 address, reads the subject CN of the
certificate served on port 443 and writes one row per domain, in input order.
Fields that cannot be determined are written as N/A.

PAP levels (least to most target-facing): red < amber < green < white.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := buildDeps(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			d = *resolved
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd.Context(), &d, inputFile, outputFile)
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())
	config.RegisterFlagCompletions(cmd)

	cmd.Version = version.Version
	cmd.SetVersionTemplate("nsolver {{.Version}}\n")

	cmd.Flags().StringVarP(&inputFile, "input-file", "i", "", "file with one domain per line")
	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "file the results are written to")
	_ = cmd.MarkFlagRequired("input-file")
	_ = cmd.MarkFlagRequired("output-file")
	_ = cmd.MarkFlagFilename("input-file")
	_ = cmd.MarkFlagFilename("output-file")

	cmd.AddGroup(
		&cobra.Group{ID: "enrich", Title: "Enrichment Commands:"},
		&cobra.Group{ID: "utility", Title: "Utility Commands:"},
	)
	cmd.AddCommand(
		newLookupCmd(&d),
		newProbesCmd(&d),
		newConfigCmd(&d),
		newCompletionCmd(),
		newVersionCmd(&d),
	)

	return cmd
}

// Execute builds the root command and runs it with args.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// runBatch enriches the domains of inputFile and writes them to outputFile.
// The output file is written even when ctx is canceled part-way; the domains
// that were not enriched are reported in the returned error.
func runBatch(ctx context.Context, d *deps, inputFile, outputFile string) (err error) {
	domains, err := input.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	d.logger.Info(fmt.Sprintf("found %d domain(s)", len(domains)), "input", inputFile)
	for _, bad := range validate.Invalid(domains) {
		d.logger.Warn("not a valid domain name, its fields will be N/A", "domain", bad)
	}

	format := d.format(output.FormatCSV)
	pipeline, err := d.newPipeline(format)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := d.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	f, err := os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //nolint:gosec // output path is chosen by the user
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output file: %w", cerr)
		}
	}()

	results := worker.Run(ctx, pipeline, domains, d.cfg.Concurrency)
	mr := pipeline.AggregateResults(outputs(results)).(*enrich.MultiResult)

	if err := writeResult(f, format, mr); err != nil {
		return err
	}
	if err := d.writeMetrics(); err != nil {
		return err
	}

	if n := mr.Canceled(); n > 0 {
		return errInterrupted(n, len(domains), cancelCause(ctx))
	}
	d.logger.Info("results written", "output", outputFile, "domains", len(domains))
	return nil
}

// outputs returns the pool outputs in input order, substituting the
// wholesale-N/A record for every domain that never ran.
func outputs(results []worker.Result) []services.Result {
	out := make([]services.Result, len(results))
	for i, r := range results {
		if r.Output == nil {
			out[i] = enrich.Canceled(r.Input)
			continue
		}
		out[i] = r.Output
	}
	return out
}

// cancelCause returns why ctx ended, defaulting to context.Canceled.
func cancelCause(ctx context.Context) error {
	if err := context.Cause(ctx); err != nil {
		return err
	}
	return context.Canceled
}
