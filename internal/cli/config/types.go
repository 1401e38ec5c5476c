// Package config loads the CLI configuration from s2http.yaml, S2HTTP_*
// environment variables and command-line flags.
package config

import (
	"maps"
	"slices"

	"github.com/leapstack-labs/s2http/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	Target       *TargetConfig        `koanf:"target" yaml:"target"`
	Environment  string               `koanf:"environment" yaml:"environment,omitempty"`
	Environments map[string]EnvConfig `koanf:"environments" yaml:"environments,omitempty"`
	Verbose      bool                 `koanf:"verbose" yaml:"verbose"`
	OutputFormat string               `koanf:"output" yaml:"output"`
	HistoryFile  string               `koanf:"history_file" yaml:"history_file,omitempty"`

	// unresolved targets kept so other environments can be resolved later
	baseTarget *TargetConfig
	flagTarget *TargetConfig
}

// EnvConfig holds environment-specific overrides.
type EnvConfig struct {
	Target *TargetConfig `koanf:"target" yaml:"target,omitempty"`
}

// Default configuration values.
const (
	DefaultOutput      = "auto" // table on a TTY, markdown otherwise
	DefaultHistoryFile = ".s2http_history"
)

// Output formats accepted by --output.
var OutputFormats = []string{"auto", "table", "json", "csv", "markdown"}

// EnvironmentNames returns the configured environment names, sorted.
func (c *Config) EnvironmentNames() []string {
	return slices.Sorted(maps.Keys(c.Environments))
}

// TargetFor resolves the target of environment name the same way the active
// target was resolved: base target, environment override, then flags.
func (c *Config) TargetFor(name string) (*TargetConfig, error) {
	return resolveTarget(c.baseTarget, c.Environments, name, c.flagTarget)
}

// Redacted returns a copy safe to print: every password is masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Target = c.Target.Redacted()
	if c.Environments != nil {
		out.Environments = make(map[string]EnvConfig, len(c.Environments))
		for name, env := range c.Environments {
			out.Environments[name] = EnvConfig{Target: env.Target.Redacted()}
		}
	}
	out.baseTarget = nil
	out.flagTarget = nil
	return &out
}
