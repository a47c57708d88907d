package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestRunCmd_FlagsAreRegistered(t *testing.T) {
	for _, name := range []string{"config", "trace", "log", "out"} {
		flag := runCmd.Flags().Lookup(name)
		assert.NotNilf(t, flag, "flag %q must be registered", name)
	}
}

func TestRunCmd_DefaultLogLevel(t *testing.T) {
	flag := runCmd.Flags().Lookup("log")
	assert.Equal(t, "info", flag.DefValue)
}

func TestRunCmd_DefaultOutIsStdout(t *testing.T) {
	flag := runCmd.Flags().Lookup("out")
	assert.Equal(t, "-", flag.DefValue)
}

func TestRunCmd_ConfigAndTraceAreRequired(t *testing.T) {
	assert.Equal(t, []string{"true"}, runCmd.Flags().Lookup("config").Annotations[cobra.BashCompOneRequiredFlag])
	assert.Equal(t, []string{"true"}, runCmd.Flags().Lookup("trace").Annotations[cobra.BashCompOneRequiredFlag])
}
