package config

import (
	"github.com/spf13/cobra"
)

var (
	formatValues      = []string{"csv", "json", "table", "text"}
	papValues         = []string{"red", "amber", "green", "white"}
	ownerSourceValues = []string{"rdap", "cymru", "geoip"}
	fingerprintValues = []string{"android", "chrome", "edge", "firefox", "ios", "randomized", "safari"}
)

// KeyCompletions returns the allowed values of an enum key, or nil.
func KeyCompletions(key string) []string {
	switch key {
	case "format":
		return formatValues
	case "pap_limit":
		return papValues
	case "owner_source":
		return ownerSourceValues
	case "tls_fingerprint":
		return fingerprintValues
	case "verbose", "defang", "tls_insecure", "owner_ipv6":
		return []string{"true", "false"}
	}
	return nil
}

// CompleteFormat provides shell completion candidates for the --format flag.
func CompleteFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return formatValues, cobra.ShellCompDirectiveNoFileComp
}

// CompletePAPLevel provides shell completion candidates for the --pap-limit flag.
func CompletePAPLevel(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return papValues, cobra.ShellCompDirectiveNoFileComp
}

// CompleteOwnerSource provides shell completion candidates for the --owner-source flag.
func CompleteOwnerSource(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return ownerSourceValues, cobra.ShellCompDirectiveNoFileComp
}

// CompleteTLSFingerprint provides shell completion candidates for the --tls-fingerprint flag.
func CompleteTLSFingerprint(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return fingerprintValues, cobra.ShellCompDirectiveNoFileComp
}

// RegisterFlagCompletions wires the enum completions onto cmd's persistent flags.
func RegisterFlagCompletions(cmd *cobra.Command) {
	completions := map[string]func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective){
		"format":          CompleteFormat,
		"pap-limit":       CompletePAPLevel,
		"owner-source":    CompleteOwnerSource,
		"tls-fingerprint": CompleteTLSFingerprint,
	}
	for name, fn := range completions {
		_ = cmd.RegisterFlagCompletionFunc(name, fn)
	}
}
