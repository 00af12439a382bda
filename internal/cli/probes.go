package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tbckr/nsolver/internal/output"
	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/services/asn"
	"github.com/tbckr/nsolver/internal/services/cert"
	"github.com/tbckr/nsolver/internal/services/dns"
	"github.com/tbckr/nsolver/internal/services/geoip"
	"github.com/tbckr/nsolver/internal/services/owner"
	"github.com/tbckr/nsolver/internal/services/rdap"
)

// probeInfo describes one probe backend and whether the current
// configuration runs it.
type probeInfo struct {
	Probe   string `json:"probe"`
	Backend string `json:"backend"`
	PAP     string `json:"pap"`
	Allowed bool   `json:"allowed"`
	Active  bool   `json:"active"`
}

type probeList []probeInfo

func (l probeList) rows() [][]string {
	rows := make([][]string, len(l))
	for i, p := range l {
		rows[i] = []string{p.Probe, p.Backend, p.PAP, fmt.Sprint(p.Allowed), fmt.Sprint(p.Active)}
	}
	return rows
}

var probeHeader = []string{"Probe", "Backend", "PAP", "Allowed", "Active"}

func (l probeList) WriteCSV(w io.Writer) error {
	return output.WriteCSV(w, probeHeader, l.rows())
}

func (l probeList) WriteTable(w io.Writer) error {
	table := output.NewGroupedWrappingTable(w, 12, 40)
	table.Header(probeHeader)
	if err := table.Bulk(l.rows()); err != nil {
		return err
	}
	return table.Render()
}

func (l probeList) WriteText(w io.Writer) error {
	for _, p := range l {
		if _, err := fmt.Fprintf(w, "%s %s %s\n", p.Probe, p.Backend, p.PAP); err != nil {
			return err
		}
	}
	return nil
}

// listProbes returns every probe backend with its PAP level, evaluated
// against limit and the selected owner source.
func listProbes(limit pap.Level, source owner.Source) probeList {
	entry := func(probe, backend string, level pap.Level, selected bool) probeInfo {
		allowed := pap.Allows(limit, level)
		return probeInfo{Probe: probe, Backend: backend, PAP: level.String(), Allowed: allowed, Active: allowed && selected}
	}
	return probeList{
		entry(dns.Name, "system nameserver", dns.PAP, true),
		entry("owner", rdap.Name, rdap.PAP, source == owner.SourceRDAP),
		entry("owner", asn.Name, asn.PAP, source == owner.SourceCymru),
		entry("owner", geoip.Name, geoip.PAP, source == owner.SourceGeoIP),
		entry(cert.Name, "tls:"+cert.DefaultPort, cert.PAP, true),
	}
}

func newProbesCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "probes",
		Short:   "List the probes, their backends and PAP levels",
		Args:    cobra.NoArgs,
		GroupID: "utility",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeResult(cmd.OutOrStdout(), d.format(output.FormatTable), listProbes(d.papLevel, d.ownerSource))
		},
	}
}
