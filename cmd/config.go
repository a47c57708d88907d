// cmd/config.go
package cmd

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trafficsim/trafficsim/sim"
	"github.com/trafficsim/trafficsim/sim/distributions"
)

// RunConfig is the YAML shape a `trafficsim run --config` file is read into.
// Every delay field is expressed in microseconds on disk and converted to a
// time.Duration when loaded.
type RunConfig struct {
	Seed int64 `yaml:"seed"`

	NetworkDelayUs         float64 `yaml:"network_delay_us"`
	ClientReportingDelayUs float64 `yaml:"client_reporting_delay_us"`
	ServerReportingDelayUs float64 `yaml:"server_reporting_delay_us"`
	ClientActionDelayUs    float64 `yaml:"client_action_delay_us"`
	ServerActionDelayUs    float64 `yaml:"server_action_delay_us"`
	ClientTriggerDelayUs   float64 `yaml:"client_trigger_delay_us"`
	ServerTriggerDelayUs   float64 `yaml:"server_trigger_delay_us"`

	MaxTraceLength   int   `yaml:"max_trace_length"`
	MaxSimIterations int64 `yaml:"max_sim_iterations"`

	OnlyClientEvents    bool `yaml:"only_client_events"`
	OnlyNetworkActivity bool `yaml:"only_network_activity"`

	MaxPaddingFracClient  float64 `yaml:"max_padding_frac_client"`
	MaxPaddingFracServer  float64 `yaml:"max_padding_frac_server"`
	MaxBlockingFracClient float64 `yaml:"max_blocking_frac_client"`
	MaxBlockingFracServer float64 `yaml:"max_blocking_frac_server"`
}

// LoadRunConfig reads and parses a RunConfig from path.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cmd: reading config %s: %w", path, err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cmd: parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

func microseconds(v float64) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(v * float64(time.Microsecond))
}

// constantOrZero wraps v as a distributions.Constant sampler, or returns nil
// if v is non-positive (so sim.Integration samples it as zero).
func constantOrZero(v float64) sim.Sampler {
	if v <= 0 {
		return nil
	}
	return distributions.Constant(microseconds(v))
}

// ToSimulatorArgs converts the loaded config into sim.SimulatorArgs, using
// constant distributions for every delay. Loading a richer distribution
// per-field is left to programmatic callers that build SimulatorArgs
// directly.
func (c *RunConfig) ToSimulatorArgs() sim.SimulatorArgs {
	return sim.SimulatorArgs{
		Network:             constantOrZero(c.NetworkDelayUs),
		MaxTraceLength:      c.MaxTraceLength,
		MaxSimIterations:    c.MaxSimIterations,
		OnlyClientEvents:    c.OnlyClientEvents,
		OnlyNetworkActivity: c.OnlyNetworkActivity,

		MaxPaddingFracClient:  c.MaxPaddingFracClient,
		MaxPaddingFracServer:  c.MaxPaddingFracServer,
		MaxBlockingFracClient: c.MaxBlockingFracClient,
		MaxBlockingFracServer: c.MaxBlockingFracServer,

		ClientIntegration: &sim.Integration{
			ReportingDelay: constantOrZero(c.ClientReportingDelayUs),
			ActionDelay:    constantOrZero(c.ClientActionDelayUs),
			TriggerDelay:   constantOrZero(c.ClientTriggerDelayUs),
		},
		ServerIntegration: &sim.Integration{
			ReportingDelay: constantOrZero(c.ServerReportingDelayUs),
			ActionDelay:    constantOrZero(c.ServerActionDelayUs),
			TriggerDelay:   constantOrZero(c.ServerTriggerDelayUs),
		},
	}
}
