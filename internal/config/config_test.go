package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Patterns.PeerSampleSize)
	assert.InDelta(t, 0.8, cfg.Workflow.ApproveThreshold, 0.001)
	assert.Equal(t, 100, cfg.Workflow.BatchSize)
	assert.Equal(t, 30*24*time.Hour, cfg.Workflow.AuditRetention())
	assert.Equal(t, 5*time.Second, cfg.Verify.Timeout())
	assert.Equal(t, 25, cfg.Verify.Port)
	assert.Equal(t, 3, cfg.Verify.MaxProbesPerDomain)
	assert.Equal(t, 7*24*time.Hour, cfg.Verify.RetryCooldown())
	assert.Contains(t, cfg.Verify.ProviderBlocklist, "gmail.com")
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
  format: console
server:
  port: 9090
patterns:
  placeholder_companies:
    - internal testing co
verify:
  max_probes_per_domain: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"internal testing co"}, cfg.Patterns.PlaceholderCompanies)
	assert.Equal(t, 1, cfg.Verify.MaxProbesPerDomain)
	// Defaults still apply for unset values
	assert.Equal(t, 4, cfg.Verify.Workers)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADMAIL_STORE_DRIVER", "postgres")
	t.Setenv("LEADMAIL_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("LEADMAIL_VERIFY_TIMEOUT_SECS", "9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9*time.Second, cfg.Verify.Timeout())
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Server.Port = 8080
	cfg.Patterns.PeerSampleSize = 10
	cfg.Workflow.ApproveThreshold = 0.8
	cfg.Verify.TimeoutSecs = 5
	cfg.Verify.MaxProbesPerDomain = 3
	cfg.Verify.MailFrom = "verify@example.com"
	return cfg
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/leads"
	assert.NoError(t, cfg.Validate("store"))
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mongo"

	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `store.driver "mongo"`)
}

func TestValidate_Enrich(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("enrich"))

	cfg.Workflow.ApproveThreshold = 1.5
	cfg.Patterns.PeerSampleSize = 0
	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approve_threshold")
	assert.Contains(t, err.Error(), "peer_sample_size")
}

func TestValidate_ZeroApproveThreshold(t *testing.T) {
	cfg := validDefaults()
	cfg.Workflow.ApproveThreshold = 0

	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow.approve_threshold must be within (0,1]")

	cfg.Workflow.ApproveThreshold = 1
	assert.NoError(t, cfg.Validate("enrich"))
}

func TestValidate_Verify(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("verify"))

	cfg.Verify.MailFrom = "nobody"
	err := cfg.Validate("verify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify.mail_from")
}

func TestValidate_ServeInvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}
