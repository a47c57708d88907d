// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/trafficsim/trafficsim/sim"
	"github.com/trafficsim/trafficsim/sim/machines"
	"github.com/trafficsim/trafficsim/sim/trace"
)

var (
	configPath string
	tracePath  string
	logLevel   string
	outPath    string
)

var rootCmd = &cobra.Command{
	Use:   "trafficsim",
	Short: "Discrete-event simulator for traffic-analysis countermeasures",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a trace through a pair of no-op endpoints and print the resulting trace",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := LoadRunConfig(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		traceText, err := os.ReadFile(tracePath)
		if err != nil {
			logrus.Fatalf("reading trace %s: %v", tracePath, err)
		}

		networkDelay := microseconds(cfg.NetworkDelayUs)
		clientReportingDelay := microseconds(cfg.ClientReportingDelayUs)
		serverReportingDelay := microseconds(cfg.ServerReportingDelayUs)

		queue, err := trace.Parse(string(traceText), 0, clientReportingDelay, serverReportingDelay, networkDelay)
		if err != nil {
			logrus.Fatalf("parsing trace %s: %v", tracePath, err)
		}

		args2 := cfg.ToSimulatorArgs()
		logrus.Infof("starting simulation seed=%d max_trace_length=%d max_iterations=%d",
			cfg.Seed, cfg.MaxTraceLength, cfg.MaxSimIterations)

		simulator, err := sim.NewSimulator(args2, queue, machines.None{}, machines.None{}, cfg.Seed)
		if err != nil {
			logrus.Fatalf("starting simulation: %v", err)
		}

		result := simulator.Run()
		output := trace.Format(result, 0)

		if outPath == "" || outPath == "-" {
			fmt.Print(output)
		} else if err := os.WriteFile(outPath, []byte(output), 0o644); err != nil {
			logrus.Fatalf("writing output %s: %v", outPath, err)
		}

		logrus.Infof("simulation complete: %d events emitted", len(result))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML run config")
	runCmd.Flags().StringVar(&tracePath, "trace", "", "Path to an input trace file")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&outPath, "out", "-", "Path to write the resulting trace, or - for stdout")
	_ = runCmd.MarkFlagRequired("config")
	_ = runCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(runCmd)
}
