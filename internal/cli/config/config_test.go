package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/s2http/pkg/adapters/s2http"
)

const sampleConfig = `
target:
  host: localhost
  port: 9000
  user: root
  password: ${S2HTTP_CFG_TEST_PASSWORD}
  database: app
environments:
  prod:
    target:
      host: prod.example.com
      protocol: https
      port: 443
      params:
        timeout: 30s
  staging:
    target:
      host: staging.example.com
verbose: false
output: json
`

// newFlags mirrors the root command's persistent flags.
func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.StringP("target", "t", "", "")
	fs.String("host", "", "")
	fs.Int("port", 0, "")
	fs.String("user", "", "")
	fs.String("password", "", "")
	fs.String("database", "", "")
	fs.String("protocol", "", "")
	fs.String("api-version", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.StringP("output", "o", "", "")
	return fs
}

// inProject writes content to s2http.yaml in a temp dir and makes it the
// working directory.
func inProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if content != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "s2http.yaml"), []byte(content), 0o600))
	}
	t.Chdir(dir)
	t.Cleanup(ResetConfig)
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	inProject(t, "")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Empty(t, GetConfigFileUsed())
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, &TargetConfig{
		Type: "s2http", Host: "localhost", Port: 3306, Protocol: "http", Version: "v1",
	}, cfg.Target)
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	t.Setenv("S2HTTP_CFG_TEST_PASSWORD", "hunter2")
	dir := inProject(t, sampleConfig)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "s2http.yaml"), GetConfigFileUsed())
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, "localhost", cfg.Target.Host)
	assert.Equal(t, 9000, cfg.Target.Port)
	assert.Equal(t, "hunter2", cfg.Target.Password, "${VAR} is expanded")
	assert.Equal(t, []string{"prod", "staging"}, cfg.EnvironmentNames())
}

func TestLoadConfig_FoundUpward(t *testing.T) {
	dir := inProject(t, sampleConfig)
	nested := filepath.Join(dir, "sql", "reports")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	_, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "s2http.yaml"), GetConfigFileUsed())
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	inProject(t, "")
	other := filepath.Join(t.TempDir(), "custom.yml")
	require.NoError(t, os.WriteFile(other, []byte("target:\n  host: custom.internal\n"), 0o600))

	cfg, err := LoadConfig(other, nil)
	require.NoError(t, err)
	assert.Equal(t, "custom.internal", cfg.Target.Host)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	inProject(t, "target: [unclosed")

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfigWithTarget_Environment(t *testing.T) {
	inProject(t, sampleConfig)

	cfg, err := LoadConfigWithTarget("", "prod", nil)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "prod.example.com", cfg.Target.Host)
	assert.Equal(t, "https", cfg.Target.Protocol)
	assert.Equal(t, 443, cfg.Target.Port)
	assert.Equal(t, "root", cfg.Target.User, "base fields are inherited")
	assert.Equal(t, "30s", cfg.Target.Params["timeout"])
}

func TestLoadConfigWithTarget_UnknownEnvironment(t *testing.T) {
	inProject(t, sampleConfig)

	_, err := LoadConfigWithTarget("", "qa", nil)
	var unknown *UnknownEnvironmentError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"prod", "staging"}, unknown.Available)
	assert.Contains(t, err.Error(), "prod, staging")
}

func TestLoadConfig_Precedence(t *testing.T) {
	inProject(t, sampleConfig)
	t.Setenv("S2HTTP_TARGET__HOST", "env.example.com")
	t.Setenv("S2HTTP_TARGET__DATABASE", "from_env")
	t.Setenv("S2HTTP_VERBOSE", "true")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--database", "from_flag", "-o", "csv", "--port", "7000"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "env.example.com", cfg.Target.Host, "env beats file")
	assert.Equal(t, "from_flag", cfg.Target.Database, "flag beats env")
	assert.Equal(t, 7000, cfg.Target.Port)
	assert.Equal(t, "csv", cfg.OutputFormat)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "root", cfg.Target.User, "unset flags do not override")
}

func TestLoadConfig_FlagsBeatEnvironmentTarget(t *testing.T) {
	inProject(t, sampleConfig)

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--host", "override.internal", "--api-version", "v2"}))

	cfg, err := LoadConfigWithTarget("", "prod", flags)
	require.NoError(t, err)
	assert.Equal(t, "override.internal", cfg.Target.Host)
	assert.Equal(t, "v2", cfg.Target.Version)
	assert.Equal(t, "https", cfg.Target.Protocol)

	staging, err := cfg.TargetFor("staging")
	require.NoError(t, err)
	assert.Equal(t, "override.internal", staging.Host, "flags apply to every environment")
	assert.Equal(t, 9000, staging.Port)
}

func TestLoadConfig_InvalidTarget(t *testing.T) {
	inProject(t, "target:\n  type: oracle\n")

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid target configuration")
	assert.Contains(t, err.Error(), "unknown adapter type")
}

func TestConfig_TargetFor(t *testing.T) {
	inProject(t, sampleConfig)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	staging, err := cfg.TargetFor("staging")
	require.NoError(t, err)
	assert.Equal(t, "staging.example.com", staging.Host)
	assert.Equal(t, 9000, staging.Port)

	base, err := cfg.TargetFor("")
	require.NoError(t, err)
	assert.Equal(t, "localhost", base.Host)

	_, err = cfg.TargetFor("nope")
	assert.Error(t, err)
}

func TestConfig_Redacted(t *testing.T) {
	cfg := &Config{
		Target: &TargetConfig{User: "root", Password: "secret"},
		Environments: map[string]EnvConfig{
			"prod": {Target: &TargetConfig{Password: "prod-secret"}},
			"dev":  {},
		},
	}

	r := cfg.Redacted()
	assert.Equal(t, "********", r.Target.Password)
	assert.Equal(t, "********", r.Environments["prod"].Target.Password)
	assert.Nil(t, r.Environments["dev"].Target)
	assert.Equal(t, "secret", cfg.Target.Password, "original untouched")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	quiet := NewLogger(&buf, false)
	quiet.Info("hidden")
	assert.Empty(t, buf.String())

	loud := NewLogger(&buf, true)
	loud.Debug("shown", slog.String("k", "v"))
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "k=v")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.Same(t, logger, ctx.Value(LoggerKey()))
}
