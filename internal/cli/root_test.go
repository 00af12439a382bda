package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/nsolver/internal/services/enrich"
	"github.com/tbckr/nsolver/internal/worker"
)

// execute runs the root command with args in an isolated config dir.
func execute(t *testing.T, ctx context.Context, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	err := Execute(ctx, args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "domains.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestBatch_RedLimitWritesNAInInputOrder(t *testing.T) {
	in := writeInput(t, "# targets\nexample.com\n\nexample.org\nexample.com\n")
	out := filepath.Join(t.TempDir(), "out.csv")

	_, stderr, err := execute(t, context.Background(), "", "-i", in, "-o", out, "--pap-limit", "red")
	require.NoError(t, err)
	assert.Contains(t, stderr, "found 3 domain(s)")

	// Every probe is above RED, and a RED limit defangs CSV output.
	assert.Equal(t, [][]string{
		enrich.Header,
		{"example[.]com", "N/A", "N/A", "N/A", "N/A", "N/A"},
		{"example[.]org", "N/A", "N/A", "N/A", "N/A", "N/A"},
		{"example[.]com", "N/A", "N/A", "N/A", "N/A", "N/A"},
	}, readCSV(t, out))
}

func TestBatch_JSONFormat(t *testing.T) {
	in := writeInput(t, "example.com\n")
	out := filepath.Join(t.TempDir(), "out.json")

	_, _, err := execute(t, context.Background(), "", "-i", in, "-o", out, "--pap-limit", "red", "--format", "json")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"domain": "example.com"`)
	assert.Contains(t, string(data), `"kind": "blocked"`)
}

func TestBatch_CanceledStillWritesOutput(t *testing.T) {
	in := writeInput(t, "example.com\nexample.org\n")
	out := filepath.Join(t.TempDir(), "out.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := execute(t, ctx, "", "-i", in, "-o", out)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "2 of 2 domain(s) not enriched")

	assert.Equal(t, [][]string{
		enrich.Header,
		{"example.com", "N/A", "N/A", "N/A", "N/A", "N/A"},
		{"example.org", "N/A", "N/A", "N/A", "N/A", "N/A"},
	}, readCSV(t, out))
}

func TestBatch_MetricsFile(t *testing.T) {
	in := writeInput(t, "example.com\n")
	out := filepath.Join(t.TempDir(), "out.csv")
	metricsFile := filepath.Join(t.TempDir(), "nsolver.prom")

	_, _, err := execute(t, context.Background(), "", "-i", in, "-o", out, "--pap-limit", "red", "--metrics-file", metricsFile)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `nsolver_domains_total{status="enriched"} 1`)
}

func TestBatch_Errors(t *testing.T) {
	in := writeInput(t, "example.com\n")
	out := filepath.Join(t.TempDir(), "out.csv")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing flags", nil, "required flag"},
		{"missing input file", []string{"-i", filepath.Join(t.TempDir(), "nope.txt"), "-o", out}, "reading input"},
		{"unwritable output", []string{"-i", in, "-o", filepath.Join(t.TempDir(), "missing", "out.csv"), "--pap-limit", "red"}, "creating output file"},
		{"positional args", []string{"-i", in, "-o", out, "example.com"}, "unknown command"},
		{"zero concurrency", []string{"-i", in, "-o", out, "-c", "0"}, "--concurrency"},
		{"zero owner concurrency", []string{"-i", in, "-o", out, "--owner-concurrency", "0"}, "--owner-concurrency"},
		{"bad pap limit", []string{"-i", in, "-o", out, "--pap-limit", "purple"}, "--pap-limit"},
		{"bad owner source", []string{"-i", in, "-o", out, "--owner-source", "whois"}, "--owner-source"},
		{"bad format", []string{"-i", in, "-o", out, "--format", "xml"}, "--format"},
		{"zero timeout", []string{"-i", in, "-o", out, "--tls-timeout", "0s"}, "--tls-timeout"},
		{"geoip without database", []string{"-i", in, "-o", out, "--owner-source", "geoip", "--geoip-db", filepath.Join(t.TempDir(), "none.mmdb")}, "opening geoip database"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, context.Background(), "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOutputs_FillsCanceledRecords(t *testing.T) {
	done := &enrich.Record{Domain: "a.example", A: []string{"192.0.2.1"}}
	got := outputs([]worker.Result{
		{Input: "a.example", Output: done},
		{Input: "b.example", Err: context.Canceled},
	})

	require.Len(t, got, 2)
	assert.Same(t, done, got[0])
	rec, ok := got[1].(*enrich.Record)
	require.True(t, ok)
	assert.Equal(t, "b.example", rec.Domain)
	assert.True(t, rec.Canceled)
}

func TestCancelCause(t *testing.T) {
	assert.ErrorIs(t, cancelCause(context.Background()), context.Canceled)

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()
	assert.ErrorIs(t, cancelCause(ctx), context.DeadlineExceeded)
}

func TestBatch_WarnsOnInvalidDomain(t *testing.T) {
	in := writeInput(t, "example.com\nnot a domain\n")
	out := filepath.Join(t.TempDir(), "out.csv")

	_, stderr, err := execute(t, context.Background(), "", "-i", in, "-o", out, "--pap-limit", "red", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, "not a valid domain name")
	assert.Contains(t, stderr, `domain="not a domain"`)
}
