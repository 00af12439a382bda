package cli

import (
	"io"

	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	completion := &cobra.Command{
		Use:     "completion [bash|zsh|fish|powershell]",
		Short:   "Generate shell completion scripts",
		GroupID: "utility",
		Long: `Generate shell completion scripts for nsolver.

Bash:
  $ source <(nsolver completion bash)
  $ nsolver completion bash > /etc/bash_completion.d/nsolver

Zsh:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  $ nsolver completion zsh > "${fpath[1]}/_nsolver"

Fish:
  $ nsolver completion fish > ~/.config/fish/completions/nsolver.fish

PowerShell:
  PS> nsolver completion powershell | Out-String | Invoke-Expression`,
		// Completion must not run buildDeps: loading the config creates the
		// config dir and file. This is the only subcommand allowed to
		// override the root PersistentPreRunE.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return nil
		},
	}

	shells := []struct {
		name string
		gen  func(root *cobra.Command, w io.Writer) error
	}{
		{"bash", func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) }},
		{"zsh", func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) }},
		{"fish", func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) }},
		{"powershell", func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) }},
	}
	for _, sh := range shells {
		completion.AddCommand(&cobra.Command{
			Use:                   sh.name,
			Short:                 "Generate " + sh.name + " completion script",
			Args:                  cobra.NoArgs,
			DisableFlagsInUseLine: true,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return sh.gen(cmd.Root(), cmd.OutOrStdout())
			},
		})
	}
	return completion
}
