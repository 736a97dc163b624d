package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadmail/internal/config"
)

func subcommandNames(cmds []*cobra.Command) map[string]bool {
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}
	return names
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(rootCmd.Commands())
	for _, name := range []string{"migrate", "import", "generate", "enrich", "verify", "patterns", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "leadmail", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestEnrichCommand_Subcommands(t *testing.T) {
	names := subcommandNames(enrichCmd.Commands())
	for _, name := range []string{"run", "apply", "cleanup"} {
		assert.True(t, names[name], "enrich should have subcommand %q", name)
	}
	require.NotNil(t, enrichRunCmd.Flags().Lookup("limit"))
	require.NotNil(t, enrichRunCmd.Flags().Lookup("manual-approve"))
	require.NotNil(t, enrichApplyCmd.Flags().Lookup("limit"))
}

func TestVerifyCommand_Subcommands(t *testing.T) {
	names := subcommandNames(verifyCmd.Commands())
	for _, name := range []string{"run", "check", "status"} {
		assert.True(t, names[name], "verify should have subcommand %q", name)
	}
}

func TestPatternsCommand_Subcommands(t *testing.T) {
	names := subcommandNames(patternsCmd.Commands())
	for _, name := range []string{"get", "delete", "rebuild"} {
		assert.True(t, names[name], "patterns should have subcommand %q", name)
	}
	assert.Error(t, patternsGetCmd.Args(patternsGetCmd, nil))
}

func TestRequiredFlags(t *testing.T) {
	for _, tc := range []struct {
		cmd  *cobra.Command
		flag string
	}{
		{importCmd, "csv"},
		{generateCmd, "name"},
		{generateCmd, "company"},
		{verifyStatusCmd, "email"},
	} {
		f := tc.cmd.Flags().Lookup(tc.flag)
		require.NotNil(t, f, "%s should have --%s", tc.cmd.Name(), tc.flag)
		assert.Equal(t, []string{"true"}, f.Annotations[cobra.BashCompOneRequiredFlag])
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestVerifyConfig_FromSettings(t *testing.T) {
	cfg = &config.Config{Verify: config.VerifyConfig{
		TimeoutSecs:       3,
		ProbeIntervalMs:   250,
		RetryCooldownDays: 7,
		Port:              2525,
	}}
	t.Cleanup(func() { cfg = nil })

	vc := verifyConfig()
	assert.Equal(t, int64(3e9), vc.Timeout.Nanoseconds())
	assert.Equal(t, int64(250e6), vc.ProbeInterval.Nanoseconds())
	assert.Equal(t, 2525, vc.Port)
	assert.Equal(t, 7*24.0, vc.RetryCooldown.Hours())
}
