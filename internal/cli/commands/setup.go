package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/leapstack-labs/s2http/internal/cli/config"
	"github.com/leapstack-labs/s2http/internal/cli/output"
	"github.com/leapstack-labs/s2http/pkg/adapter"
	"github.com/leapstack-labs/s2http/pkg/adapters/s2http"
	"github.com/leapstack-labs/s2http/pkg/core"
	"github.com/leapstack-labs/s2http/pkg/dbapi"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
// A non-empty format overrides the configured output format.
func NewCommandContext(cmd *cobra.Command, format string) (*CommandContext, error) {
	cfg := getConfig()
	if format == "" {
		format = cfg.OutputFormat
	}
	mode, err := output.ParseMode(format)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}

// Connect opens a dbapi connection to the active target.
func (c *CommandContext) Connect() (*dbapi.Connection, error) {
	return connectTarget(c.Cfg.Target, c.Logger)
}

// OpenAdapter creates and connects the adapter named by the active target.
// The caller must close it.
func (c *CommandContext) OpenAdapter(ctx context.Context) (adapter.Adapter, error) {
	acfg := core.AdapterConfigFromTarget(c.Cfg.Target)
	a, err := adapter.NewAdapter(acfg, c.Logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, acfg); err != nil {
		return nil, err
	}
	return a, nil
}

func connectTarget(t *config.TargetConfig, logger *slog.Logger) (*dbapi.Connection, error) {
	if t == nil {
		return nil, fmt.Errorf("no target configured")
	}
	params, err := s2http.ParseParams(core.AdapterConfigFromTarget(t).Params)
	if err != nil {
		return nil, err
	}
	return dbapi.Connect(dbapi.Config{
		Host:       t.Host,
		Port:       t.Port,
		User:       t.User,
		Password:   t.Password,
		Database:   t.Database,
		Protocol:   params.Protocol,
		Version:    params.Version,
		HTTPClient: &http.Client{Timeout: params.Timeout},
		Headers:    params.Headers,
		Logger:     logger,
	})
}

// getConfig returns the current configuration, or an unresolved default
// when none has been loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{OutputFormat: config.DefaultOutput}
}

// AddGlobalFlags registers the persistent flags shared by every command.
func AddGlobalFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default: nearest s2http.yaml)")
	fs.StringP("target", "t", "", "Environment to use (e.g., dev, staging, prod)")
	fs.String("host", "", "Server host")
	fs.Int("port", 0, "Server port (default 3306, 443 for https)")
	fs.String("user", "", "User name")
	fs.String("password", "", "Password")
	fs.String("database", "", "Default database")
	fs.String("protocol", "", "Protocol: http or https")
	fs.String("api-version", "", "API version path segment")
	fs.BoolP("verbose", "v", false, "Verbose output")
	fs.StringP("output", "o", "", "Output format (auto|table|json|csv|markdown)")
	fs.String("history", "", "REPL history file (default ~/.s2http_history)")
}

// LoadGlobalConfig loads the configuration selected by the flags registered
// with AddGlobalFlags.
func LoadGlobalConfig(fs *pflag.FlagSet) (*config.Config, error) {
	cfgFile, _ := fs.GetString("config")
	target, _ := fs.GetString("target")
	return config.LoadConfigWithTarget(cfgFile, target, fs)
}
