package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	intconfig "github.com/leapstack-labs/s2http/internal/config"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by the loader.
// A double underscore separates nested keys: S2HTTP_TARGET__HOST.
const EnvPrefix = "S2HTTP_"

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// flagKeys maps CLI flag names to config keys. Flags not listed are not
// config values.
var flagKeys = map[string]string{
	"host":        "target.host",
	"port":        "target.port",
	"user":        "target.user",
	"password":    "target.password",
	"database":    "target.database",
	"protocol":    "target.protocol",
	"api-version": "target.version",
	"verbose":     "verbose",
	"output":      "output",
	"history":     "history_file",
}

var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// ResetConfig clears loader state. Used by tests.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithTarget(cfgFile, "", flags)
}

// LoadConfigWithTarget loads configuration and resolves the target of the
// named environment. An empty targetOverride selects the configured
// environment, or the base target when none is configured.
func LoadConfigWithTarget(cfgFile, targetOverride string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")
	configFileUsed = ""

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"verbose": false,
		"output":  DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file: explicit path, else the nearest s2http.yaml upward
	path, err := locateConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		configFileUsed = path
	}

	// 3. Environment variables: S2HTTP_TARGET__HOST -> target.host
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	fk := koanf.New(".")
	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", fk, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := fk.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
		if err := k.Merge(fk); err != nil {
			return nil, fmt.Errorf("failed to merge flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Flags win over environment-specific targets, so keep them apart.
	var flagTarget TargetConfig
	if err := fk.Unmarshal("target", &flagTarget); err != nil {
		return nil, fmt.Errorf("unable to decode target flags: %w", err)
	}
	cfg.baseTarget = cfg.Target
	cfg.flagTarget = &flagTarget

	if targetOverride != "" {
		cfg.Environment = targetOverride
	}

	target, err := resolveTarget(cfg.baseTarget, cfg.Environments, cfg.Environment, cfg.flagTarget)
	if err != nil {
		return nil, err
	}
	cfg.Target = target

	currentConfig = &cfg
	return &cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func locateConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", nil
	}
	if root := intconfig.FindProjectRoot(cwd); root != "" {
		return intconfig.FindConfigFile(root), nil
	}
	return "", nil
}

// resolveTarget merges base, the named environment's target and flag
// overrides, then applies defaults, ${VAR} expansion and validation.
func resolveTarget(base *TargetConfig, envs map[string]EnvConfig, name string, flags *TargetConfig) (*TargetConfig, error) {
	target := intconfig.MergeTarget(base, nil)
	if name != "" {
		envCfg, ok := envs[name]
		if !ok {
			return nil, &UnknownEnvironmentError{Name: name, Available: (&Config{Environments: envs}).EnvironmentNames()}
		}
		target = intconfig.MergeTarget(target, envCfg.Target)
	}
	target = intconfig.MergeTarget(target, flags)
	if target == nil {
		target = &TargetConfig{}
	}

	intconfig.ApplyTargetDefaults(target)
	intconfig.ExpandTargetEnvVars(target)

	if err := intconfig.ValidateTarget(target); err != nil {
		return nil, fmt.Errorf("invalid target configuration: %w", err)
	}
	return target, nil
}

// UnknownEnvironmentError is returned when --target names an environment
// missing from the config file.
type UnknownEnvironmentError struct {
	Name      string
	Available []string
}

func (e *UnknownEnvironmentError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown environment %q: no environments defined in s2http.yaml", e.Name)
	}
	return fmt.Sprintf("unknown environment %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// GetConfigFileUsed returns the path of the loaded config file, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration of the last successful load.
func GetCurrentConfig() *Config {
	return currentConfig
}

// NewLogger returns a text logger writing to w: Debug when verbose, Warn
// otherwise.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// LoggerKey returns the context key the logger is stored under. Exposed so
// the commands package can read it without importing the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// WithLogger returns ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from ctx, or a discard logger.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
