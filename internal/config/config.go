// Package config registers nsolver's flags and resolves them, together with
// the optional YAML config file, into a Config.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tbckr/nsolver/internal/appdir"
)

// Defaults shared by flags and the config file.
const (
	DefaultConcurrency      = 10
	DefaultOwnerConcurrency = 4
	DefaultPAPLimit         = "white"
	DefaultOwnerSource      = "rdap"
	DefaultRDAPURL          = "https://rdap.org"
	DefaultDNSTimeout       = 5 * time.Second
	DefaultRDAPTimeout      = 10 * time.Second
	DefaultTLSTimeout       = 5 * time.Second
)

// Config is the fully-resolved runtime configuration.
// Precedence: flag > config file > default.
type Config struct {
	ConfigFile string `mapstructure:"-"`

	Verbose          bool          `mapstructure:"verbose"`
	Format           string        `mapstructure:"format"`
	Concurrency      int           `mapstructure:"concurrency"`
	OwnerConcurrency int           `mapstructure:"owner_concurrency"`
	Proxy            string        `mapstructure:"proxy"`
	UserAgent        string        `mapstructure:"user_agent"`
	TLSFingerprint   string        `mapstructure:"tls_fingerprint"`
	PAPLimit         string        `mapstructure:"pap_limit"`
	Defang           bool          `mapstructure:"defang"`
	DNSTimeout       time.Duration `mapstructure:"dns_timeout"`
	RDAPTimeout      time.Duration `mapstructure:"rdap_timeout"`
	TLSTimeout       time.Duration `mapstructure:"tls_timeout"`
	TLSInsecure      bool          `mapstructure:"tls_insecure"`
	OwnerSource      string        `mapstructure:"owner_source"`
	OwnerIPv6        bool          `mapstructure:"owner_ipv6"`
	GeoIPDB          string        `mapstructure:"geoip_db"`
	RDAPURL          string        `mapstructure:"rdap_url"`
	MetricsFile      string        `mapstructure:"metrics_file"`
}

// RegisterFlags adds every persistent flag to flags. Flag names use hyphens;
// the matching config keys use underscores.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default: $XDG_CONFIG_HOME/nsolver/config.yaml)")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.String("format", "", "output format: csv, json, table or text (default: csv for batch runs, table for lookup)")
	flags.IntP("concurrency", "c", DefaultConcurrency, "number of domains enriched in parallel")
	flags.Int("owner-concurrency", DefaultOwnerConcurrency, "parallel ownership lookups per domain")
	flags.String("proxy", "", "proxy URL (http://, https:// or socks5://)")
	flags.String("user-agent", "", "User-Agent for RDAP requests, or a browser preset (chrome, firefox, safari, ...)")
	flags.String("tls-fingerprint", "", "TLS client hello preset for RDAP requests (chrome, firefox, safari, edge, ios, android, randomized)")
	flags.String("pap-limit", DefaultPAPLimit, "most target-facing PAP level allowed: red, amber, green or white")
	flags.Bool("defang", false, "defang domains and IP addresses in output")
	flags.Duration("dns-timeout", DefaultDNSTimeout, "timeout per DNS query")
	flags.Duration("rdap-timeout", DefaultRDAPTimeout, "timeout per ownership lookup")
	flags.Duration("tls-timeout", DefaultTLSTimeout, "timeout for TLS connect and handshake")
	flags.Bool("tls-insecure", false, "report the certificate CN even when verification fails")
	flags.String("owner-source", DefaultOwnerSource, "ownership backend: rdap, cymru or geoip")
	flags.Bool("owner-ipv6", false, "also look up owners of IPv6 addresses (adds an \"IPv6 Owner\" column)")
	flags.String("geoip-db", "", "path to a MaxMind GeoLite2-ASN database (owner-source geoip)")
	flags.String("rdap-url", DefaultRDAPURL, "RDAP base URL")
	flags.String("metrics-file", "", "write Prometheus metrics to this file when the run ends")
}

// FlagName converts a config key to its flag name ("pap_limit" → "pap-limit").
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// KeyName converts a flag name to its config key ("pap-limit" → "pap_limit").
func KeyName(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// DefaultConfigPath returns the config file path inside appdir.ConfigDir.
func DefaultConfigPath() (string, error) {
	dir, err := appdir.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load resolves the configuration from flags and the config file. The config
// file is created (empty, 0600) if it does not exist yet.
func Load(flags *pflag.FlagSet) (*Config, error) {
	configFile, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if configFile == "" {
		if configFile, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}
	if err := appdir.EnsureFile(configFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	for _, key := range ValidKeys() {
		if f := flags.Lookup(FlagName(key)); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %q: %w", f.Name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", configFile, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", configFile, err)
	}
	cfg.ConfigFile = configFile
	return &cfg, nil
}
