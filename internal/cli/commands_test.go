package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/nsolver/internal/config"
	"github.com/tbckr/nsolver/internal/pap"
	"github.com/tbckr/nsolver/internal/services/owner"
)

func TestListProbes(t *testing.T) {
	probes := listProbes(pap.AMBER, owner.SourceCymru)
	require.Len(t, probes, 5)

	byBackend := map[string]probeInfo{}
	for _, p := range probes {
		byBackend[p.Backend] = p
	}
	assert.False(t, byBackend["system nameserver"].Allowed)
	assert.True(t, byBackend["cymru"].Active)
	assert.False(t, byBackend["rdap"].Active)
	assert.True(t, byBackend["rdap"].Allowed)
	assert.Equal(t, "red", byBackend["geoip"].PAP)
	assert.False(t, byBackend["tls:443"].Active)
}

func TestProbesCmd_CSV(t *testing.T) {
	stdout, _, err := execute(t, context.Background(), "", "probes", "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t,
		"Probe,Backend,PAP,Allowed,Active\n"+
			"dns,system nameserver,green,true,true\n"+
			"owner,rdap,amber,true,true\n"+
			"owner,cymru,amber,true,false\n"+
			"owner,geoip,red,true,false\n"+
			"cert,tls:443,green,true,true\n",
		stdout)
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := execute(t, context.Background(), "", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "nsolver ")

	stdout, _, err = execute(t, context.Background(), "", "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Contains(t, info, "go_version")
}

func TestCompletionCmd(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		stdout, _, err := execute(t, context.Background(), "", "completion", shell)
		require.NoError(t, err, shell)
		assert.Contains(t, stdout, "nsolver", shell)
	}
}

func TestCompletionCmd_DoesNotCreateConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	err := Execute(context.Background(), []string{"completion", "bash"}, nil, io.Discard, io.Discard)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "nsolver"))
	assert.True(t, os.IsNotExist(err))
}

func TestConfigSetGetShow(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")

	_, _, err := execute(t, context.Background(), "", "config", "set", "pap-limit", "amber", "--config", cfgFile)
	require.NoError(t, err)
	_, _, err = execute(t, context.Background(), "", "config", "set", "tls_timeout", "1500ms", "--config", cfgFile)
	require.NoError(t, err)

	data, err := os.ReadFile(cfgFile)
	require.NoError(t, err)
	assert.Equal(t, "pap_limit: amber\ntls_timeout: 1.5s\n", string(data))

	stdout, _, err := execute(t, context.Background(), "", "config", "get", "pap_limit", "--config", cfgFile)
	require.NoError(t, err)
	assert.Equal(t, "amber\n", stdout)

	// Flags override the file.
	stdout, _, err = execute(t, context.Background(), "", "config", "get", "pap-limit", "--pap-limit", "red", "--config", cfgFile)
	require.NoError(t, err)
	assert.Equal(t, "red\n", stdout)

	stdout, _, err = execute(t, context.Background(), "", "config", "show", "--format", "text", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "tls_timeout=1.5s\n")
	assert.Contains(t, stdout, "concurrency=10\n")
}

func TestConfigSet_Invalid(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")

	_, _, err := execute(t, context.Background(), "", "config", "set", "colour", "blue", "--config", cfgFile)
	require.ErrorIs(t, err, config.ErrUnknownKey)

	_, _, err = execute(t, context.Background(), "", "config", "set", "owner_source", "whois", "--config", cfgFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")
}

func TestConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	var stdout bytes.Buffer
	err := Execute(context.Background(), []string{"config", "path"}, nil, &stdout, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nsolver", "config.yaml")+"\n", stdout.String())
}

func TestConfigValues_CoversEveryKey(t *testing.T) {
	values := configValues(&config.Config{})
	for _, key := range config.ValidKeys() {
		assert.Contains(t, values, key)
	}
}
