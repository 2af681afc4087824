package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "corpora", cmd.Use)
	assert.Contains(t, cmd.Long, "E-ARK")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"test", "report", "coverage", "validate", "runners", "history"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "corpus", "specs", "runners", "results", "site", "db"} {
		f := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, f, "flag --%s", name)
		assert.Empty(t, f.DefValue, "--%s defaults to the configuration value", name)
	}
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	jobs := testCmd.Flags().Lookup("jobs")
	require.NotNil(t, jobs)
	assert.Equal(t, "j", jobs.Shorthand)
	assert.NotNil(t, testCmd.Flags().Lookup("clear"))
	assert.NotNil(t, testCmd.Flags().Lookup("timeout"))
	assert.NotNil(t, testCmd.Flags().Lookup("no-report"))
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "yaml", "coverage"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMissingConfigFile(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", t.TempDir() + "/absent.yaml", "coverage"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error ["+ErrCodeConfig+"]")
}

func TestFlagOverridesConfig(t *testing.T) {
	fx := newFixture(t, "CSIP1", "CSIP2")
	opts := fx.rootOptions("text")
	opts.Site = "/elsewhere/site"

	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/site", cfg.Site)
	assert.Equal(t, fx.results, cfg.Results)
	assert.False(t, cfg.ValidateDefinitions)
}
