package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newTestRootCmd creates a cobra.Command with the same persistent flags as the
// real root command so that Load can bind them during tests.
func newTestRootCmd() *cobra.Command {
	cmd := &cobra.Command{}
	pf := cmd.PersistentFlags()
	pf.String("config", "", "")
	pf.String("input-dir", "test_image", "")
	pf.String("output-dir", "output_image", "")
	pf.Duration("debounce", 500*time.Millisecond, "")
	pf.String("log-level", "info", "")
	pf.String("log-format", "text", "")
	pf.Bool("no-color", false, "")
	pf.BoolP("quiet", "q", false, "")

	return cmd
}

// writeTempConfig writes a YAML string to a temporary file and returns the path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

// ---------------------------------------------------------------------------
// Default
// ---------------------------------------------------------------------------

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "test_image", cfg.InputDir)
	assert.Equal(t, "output_image", cfg.OutputDir)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.False(t, cfg.NoColor)
	assert.False(t, cfg.Quiet)
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate_ValidValues(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		cfg := Default()
		cfg.LogLevel = lvl
		assert.NoError(t, cfg.Validate(), "level=%s", lvl)
	}

	for _, fmt := range []string{"text", "json"} {
		cfg := Default()
		cfg.LogFormat = fmt
		assert.NoError(t, cfg.Validate(), "format=%s", fmt)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	assert.ErrorContains(t, cfg.Validate(), "invalid log level")
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"
	assert.ErrorContains(t, cfg.Validate(), "invalid log format")
}

func TestValidate_EmptyInputDir(t *testing.T) {
	cfg := Default()
	cfg.InputDir = ""
	assert.ErrorContains(t, cfg.Validate(), "input directory")
}

func TestValidate_EmptyOutputDir(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = ""
	assert.ErrorContains(t, cfg.Validate(), "output directory")
}

func TestValidate_NonPositiveDebounce(t *testing.T) {
	cfg := Default()
	cfg.Debounce = 0
	assert.ErrorContains(t, cfg.Validate(), "debounce")

	cfg.Debounce = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "debounce")
}

// ---------------------------------------------------------------------------
// EffectiveLogLevel
// ---------------------------------------------------------------------------

func TestEffectiveLogLevel_Normal(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	assert.Equal(t, "debug", cfg.EffectiveLogLevel())
}

func TestEffectiveLogLevel_QuietOverride(t *testing.T) {
	cfg := &Config{LogLevel: "debug", Quiet: true}
	assert.Equal(t, "error", cfg.EffectiveLogLevel())
}

// ---------------------------------------------------------------------------
// Load — defaults only
// ---------------------------------------------------------------------------

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "test_image", cfg.InputDir)
	assert.Equal(t, "output_image", cfg.OutputDir)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.False(t, cfg.Quiet)
}

// ---------------------------------------------------------------------------
// Load — environment variables
// ---------------------------------------------------------------------------

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("ANNOWATCH_LOG_LEVEL", "debug")
	t.Setenv("ANNOWATCH_INPUT_DIR", "/srv/records")
	t.Setenv("ANNOWATCH_DEBOUNCE", "2s")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/srv/records", cfg.InputDir)
	assert.Equal(t, 2*time.Second, cfg.Debounce)
}

func TestLoad_EnvInvalidValueRejected(t *testing.T) {
	t.Setenv("ANNOWATCH_LOG_LEVEL", "chatty")

	_, err := Load(nil, "")
	assert.ErrorContains(t, err, "invalid log level")
}

// ---------------------------------------------------------------------------
// Load — config file
// ---------------------------------------------------------------------------

func TestLoad_ConfigFile(t *testing.T) {
	p := writeTempConfig(t, "log-level: warn\noutput-dir: /var/overlays\ndebounce: 750ms\n")

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "/var/overlays", cfg.OutputDir)
	assert.Equal(t, 750*time.Millisecond, cfg.Debounce)
	assert.Equal(t, p, cfg.ConfigFile)
}

func TestLoad_ConfigFileMissing(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "reading config file")
}

func TestLoad_ConfigFileMalformed(t *testing.T) {
	p := writeTempConfig(t, "log-level: [not, a, scalar\n")

	_, err := Load(nil, p)
	assert.Error(t, err)
}

func TestLoad_EnvBeatsConfigFile(t *testing.T) {
	p := writeTempConfig(t, "log-level: warn\n")
	t.Setenv("ANNOWATCH_LOG_LEVEL", "error")

	cfg, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

// ---------------------------------------------------------------------------
// Load — flags
// ---------------------------------------------------------------------------

func TestLoad_FlagBeatsEnv(t *testing.T) {
	t.Setenv("ANNOWATCH_LOG_LEVEL", "warn")

	cmd := newTestRootCmd()
	require.NoError(t, cmd.PersistentFlags().Set("log-level", "debug"))

	cfg, err := Load(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_FlagDebounce(t *testing.T) {
	cmd := newTestRootCmd()
	require.NoError(t, cmd.PersistentFlags().Set("debounce", "1s"))

	cfg, err := Load(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Debounce)
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

func TestContextRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"

	ctx := NewContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	cfg := FromContext(context.Background())
	assert.Equal(t, Default(), cfg)
}
