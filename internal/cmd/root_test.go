package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "subsync", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)

	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	for _, expected := range []string{"run", "once", "validate", "init"} {
		assert.Contains(t, names, expected)
	}

	for _, flag := range []string{"config", "log-format", "metrics-addr", "verbose"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), "missing --%s", flag)
	}
	assert.Equal(t, "configure.json", rootCmd.PersistentFlags().Lookup("config").DefValue)
	assert.Equal(t, "console", rootCmd.PersistentFlags().Lookup("log-format").DefValue)
}

func TestRootCommandHelp(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"--help"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "subsync")
	assert.Contains(t, output, "SUBSYNC_<KEY>")
	assert.Contains(t, output, "once")
	assert.Contains(t, output, "validate")
}

func TestSubcommandsRejectArguments(t *testing.T) {
	for _, name := range []string{"run", "once", "validate", "init"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, cmd.Args)
			assert.Error(t, cmd.Args(cmd, []string{"extra"}))
			assert.NoError(t, cmd.Args(cmd, nil))
		})
	}
}
