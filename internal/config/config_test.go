package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "bom.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 4, cfg.Store.MaxConns)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Claude.Model)
	assert.InDelta(t, 2.0, cfg.Claude.RateLimit, 0.001)
	assert.Equal(t, 120, cfg.Claude.TimeoutSecs)
	assert.InDelta(t, 0.6, cfg.Workflow.BaseThreshold, 0.001)
	assert.Equal(t, "ja", cfg.Workflow.SourceLanguage)
	assert.Equal(t, "en", cfg.Workflow.TargetLanguage)
	assert.Equal(t, 4, cfg.Workflow.MaxParallelMatches)
	assert.Equal(t, 30, cfg.Supplier.FTPTimeoutSecs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/bom
workflow:
  base_threshold: 0.5
  source_language: de
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/bom", cfg.Store.DatabaseURL)
	assert.InDelta(t, 0.5, cfg.Workflow.BaseThreshold, 0.001)
	assert.Equal(t, "de", cfg.Workflow.SourceLanguage)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, "en", cfg.Workflow.TargetLanguage)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("BOM_STORE_DRIVER", "postgres")
	t.Setenv("BOM_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("BOM_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
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

// validDefaults returns a Config populated like Load's defaults for
// validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "bom.db"
	cfg.Workflow.BaseThreshold = 0.6
	cfg.Workflow.MaxParallelMatches = 4
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateRun_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("run"))
}

func TestValidate_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "oracle"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateWorkflowBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Workflow.BaseThreshold = 1.5
	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base_threshold")

	cfg.Workflow.BaseThreshold = 0.6
	cfg.Workflow.MaxParallelMatches = 0
	err = cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_parallel_matches must be between 1 and 64")

	cfg.Workflow.MaxParallelMatches = 64
	assert.NoError(t, cfg.Validate("run"))
}
