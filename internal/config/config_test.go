package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/nsolver/internal/config"
)

// newTestFlags registers all config flags on a fresh FlagSet, then parses extra args.
func newTestFlags(t *testing.T, cfgFile string, extra ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	args := append([]string{"--config=" + cfgFile}, extra...)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoad_DefaultsWithTempDir(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")

	cfg, err := config.Load(newTestFlags(t, cfgFile))
	require.NoError(t, err)
	assert.Equal(t, cfgFile, cfg.ConfigFile)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.Format)
	assert.Equal(t, "white", cfg.PAPLimit)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, 4, cfg.OwnerConcurrency)
	assert.Equal(t, "rdap", cfg.OwnerSource)
	assert.Equal(t, "https://rdap.org", cfg.RDAPURL)
	assert.Equal(t, 5*time.Second, cfg.DNSTimeout)
	assert.Equal(t, 10*time.Second, cfg.RDAPTimeout)
	assert.Equal(t, 5*time.Second, cfg.TLSTimeout)
	assert.False(t, cfg.TLSInsecure)
	assert.False(t, cfg.OwnerIPv6)
	assert.False(t, cfg.Defang)

	// Config file should now exist with 0600 permissions.
	info, err := os.Stat(cfgFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_ExistingConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")

	// Pre-create the file; Load must not fail if it already exists.
	require.NoError(t, os.WriteFile(cfgFile, []byte{}, 0o600))

	cfg, err := config.Load(newTestFlags(t, cfgFile, "--verbose", "--format=json"))
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoad_Flags(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")

	cfg, err := config.Load(newTestFlags(t, cfgFile,
		"--proxy=socks5://127.0.0.1:9050",
		"--user-agent=MyAgent/1.0",
		"--pap-limit=amber",
		"--defang",
		"-c", "5",
		"--owner-concurrency=8",
		"--dns-timeout=2s",
		"--rdap-timeout=1m",
		"--tls-insecure",
		"--owner-source=geoip",
		"--geoip-db=/tmp/GeoLite2-ASN.mmdb",
		"--owner-ipv6",
		"--metrics-file=/tmp/nsolver.prom",
	))
	require.NoError(t, err)
	assert.Equal(t, "socks5://127.0.0.1:9050", cfg.Proxy)
	assert.Equal(t, "MyAgent/1.0", cfg.UserAgent)
	assert.Equal(t, "amber", cfg.PAPLimit)
	assert.True(t, cfg.Defang)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 8, cfg.OwnerConcurrency)
	assert.Equal(t, 2*time.Second, cfg.DNSTimeout)
	assert.Equal(t, time.Minute, cfg.RDAPTimeout)
	assert.True(t, cfg.TLSInsecure)
	assert.Equal(t, "geoip", cfg.OwnerSource)
	assert.Equal(t, "/tmp/GeoLite2-ASN.mmdb", cfg.GeoIPDB)
	assert.True(t, cfg.OwnerIPv6)
	assert.Equal(t, "/tmp/nsolver.prom", cfg.MetricsFile)
}

func TestLoad_ConfigFileValues(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")

	yamlContent := "proxy: \"http://fileproxy:3128\"\nuser_agent: \"FileAgent/2.0\"\npap_limit: \"green\"\nconcurrency: 20\ntls_timeout: 750ms\nowner_source: cymru\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(yamlContent), 0o600))

	cfg, err := config.Load(newTestFlags(t, cfgFile))
	require.NoError(t, err)
	assert.Equal(t, "http://fileproxy:3128", cfg.Proxy)
	assert.Equal(t, "FileAgent/2.0", cfg.UserAgent)
	assert.Equal(t, "green", cfg.PAPLimit)
	assert.Equal(t, 20, cfg.Concurrency)
	assert.Equal(t, 750*time.Millisecond, cfg.TLSTimeout)
	assert.Equal(t, "cymru", cfg.OwnerSource)
}

func TestLoad_FlagOverridesFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("concurrency: 20\npap_limit: red\n"), 0o600))

	cfg, err := config.Load(newTestFlags(t, cfgFile, "--concurrency=3"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, "red", cfg.PAPLimit)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("concurrency: [unterminated\n"), 0o600))

	_, err := config.Load(newTestFlags(t, cfgFile))
	require.Error(t, err)
}

func TestFlagAndKeyNames(t *testing.T) {
	assert.Equal(t, "pap-limit", config.FlagName("pap_limit"))
	assert.Equal(t, "owner_concurrency", config.KeyName("owner-concurrency"))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	for _, key := range config.ValidKeys() {
		assert.NotNil(t, flags.Lookup(config.FlagName(key)), "key %q has no flag", key)
	}
}

func TestValidateKey(t *testing.T) {
	t.Run("valid_underscore", func(t *testing.T) {
		require.NoError(t, config.ValidateKey("pap_limit"))
	})
	t.Run("valid_hyphen", func(t *testing.T) {
		require.NoError(t, config.ValidateKey("pap-limit"))
	})
	t.Run("all_keys", func(t *testing.T) {
		for _, k := range config.ValidKeys() {
			require.NoError(t, config.ValidateKey(k), "key %q should be valid", k)
		}
	})
	t.Run("unknown", func(t *testing.T) {
		err := config.ValidateKey("does_not_exist")
		require.Error(t, err)
		require.ErrorIs(t, err, config.ErrUnknownKey)
	})
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    any
		wantErr bool
	}{
		// bool
		{key: "verbose", value: "true", want: true},
		{key: "owner_ipv6", value: "false", want: false},
		{key: "defang", value: "1", want: true},
		{key: "verbose", value: "yes", wantErr: true},
		// int
		{key: "concurrency", value: "5", want: 5},
		{key: "owner-concurrency", value: "2", want: 2},
		{key: "concurrency", value: "0", wantErr: true},
		{key: "concurrency", value: "abc", wantErr: true},
		// duration
		{key: "dns_timeout", value: "2s", want: "2s"},
		{key: "rdap-timeout", value: "1500ms", want: "1.5s"},
		{key: "tls_timeout", value: "0s", wantErr: true},
		{key: "tls_timeout", value: "soon", wantErr: true},
		// enum string
		{key: "format", value: "csv", want: "csv"},
		{key: "format", value: "xml", wantErr: true},
		{key: "pap-limit", value: "amber", want: "amber"},
		{key: "pap_limit", value: "invalid", wantErr: true},
		{key: "owner_source", value: "cymru", want: "cymru"},
		{key: "owner_source", value: "whois", wantErr: true},
		// free-form string
		{key: "proxy", value: "http://proxy:3128", want: "http://proxy:3128"},
		{key: "rdap_url", value: "https://rdap.arin.net/registry", want: "https://rdap.arin.net/registry"},
	}
	for _, tc := range tests {
		t.Run(tc.key+"/"+tc.value, func(t *testing.T) {
			got, err := config.ParseValue(tc.key, tc.value)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseValue_UnknownKey(t *testing.T) {
	_, err := config.ParseValue("nonexistent", "value")
	require.ErrorIs(t, err, config.ErrUnknownKey)
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path, err := config.DefaultConfigPath()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path), "expected absolute path, got %q", path)
	assert.Equal(t, "config.yaml", filepath.Base(path))
	assert.Equal(t, "nsolver", filepath.Base(filepath.Dir(path)))
}
