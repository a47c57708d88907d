package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadRunConfig_ParsesSetFields(t *testing.T) {
	path := writeTempConfig(t, `
seed: 42
network_delay_us: 5
client_reporting_delay_us: 1
server_reporting_delay_us: 2
max_trace_length: 100
max_sim_iterations: 5000
only_client_events: true
max_padding_frac_client: 0.1
`)

	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 5.0, cfg.NetworkDelayUs)
	assert.Equal(t, 1.0, cfg.ClientReportingDelayUs)
	assert.Equal(t, 2.0, cfg.ServerReportingDelayUs)
	assert.Equal(t, 100, cfg.MaxTraceLength)
	assert.Equal(t, int64(5000), cfg.MaxSimIterations)
	assert.True(t, cfg.OnlyClientEvents)
	assert.Equal(t, 0.1, cfg.MaxPaddingFracClient)
}

func TestLoadRunConfig_MissingFileReturnsError(t *testing.T) {
	_, err := LoadRunConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRunConfig_InvalidYAMLReturnsError(t *testing.T) {
	path := writeTempConfig(t, "not: [valid: yaml")
	_, err := LoadRunConfig(path)
	assert.Error(t, err)
}

func TestToSimulatorArgs_ZeroDelaysBecomeNilSamplers(t *testing.T) {
	cfg := &RunConfig{Seed: 1}
	args := cfg.ToSimulatorArgs()

	require.NotNil(t, args.ClientIntegration)
	assert.Nil(t, args.ClientIntegration.ReportingDelay)
	assert.Nil(t, args.Network)
}

func TestToSimulatorArgs_PositiveDelayBecomesConstantSampler(t *testing.T) {
	cfg := &RunConfig{Seed: 1, NetworkDelayUs: 5, ClientReportingDelayUs: 2}
	args := cfg.ToSimulatorArgs()

	require.NotNil(t, args.Network)
	got := args.Network.Sample(nil)
	assert.EqualValues(t, 5000, got)

	require.NotNil(t, args.ClientIntegration.ReportingDelay)
	got = args.ClientIntegration.ReportingDelay.Sample(nil)
	assert.EqualValues(t, 2000, got)
}
