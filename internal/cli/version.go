package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbckr/nsolver/internal/output"
	"github.com/tbckr/nsolver/internal/version"
)

func newVersionCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print the nsolver version",
		Args:    cobra.NoArgs,
		GroupID: "utility",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if d.format(output.FormatText) == output.FormatJSON {
				return writeResult(cmd.OutOrStdout(), output.FormatJSON, info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
}
