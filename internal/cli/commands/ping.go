package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/s2http/internal/cli/output"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// PingOptions holds options for the ping command.
type PingOptions struct {
	All     bool
	Format  string
	Timeout time.Duration
}

// pingResult is the outcome of one health check.
type pingResult struct {
	Environment string `json:"environment"`
	URL         string `json:"url"`
	OK          bool   `json:"ok"`
	Latency     string `json:"latency"`
	Error       string `json:"error,omitempty"`
}

// NewPingCommand creates the ping command.
func NewPingCommand() *cobra.Command {
	opts := &PingOptions{}

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the server answers its health endpoint",
		Long: `Check the server's unauthenticated /ping endpoint.

With --all, every environment in s2http.yaml is checked concurrently and the
command fails if any of them is down.`,
		Example: `  s2http ping
  s2http ping -t prod
  s2http ping --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPing(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "Ping every configured environment")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: auto, table, json, csv, markdown")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Per-check timeout")

	return cmd
}

func runPing(cmd *cobra.Command, opts *PingOptions) error {
	cmdCtx, err := NewCommandContext(cmd, opts.Format)
	if err != nil {
		return err
	}

	names := []string{cmdCtx.Cfg.Environment}
	if opts.All {
		names = cmdCtx.Cfg.EnvironmentNames()
		if len(names) == 0 {
			return fmt.Errorf("no environments defined in config")
		}
	}

	results := make([]pingResult, len(names))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, name := range names {
		g.Go(func() error {
			results[i] = pingEnvironment(ctx, cmdCtx, name, opts.Timeout)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if !res.OK {
			failed++
		}
	}

	if err := renderPingResults(cmdCtx.Renderer, results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d health checks failed", failed, len(results))
	}
	return nil
}

// pingEnvironment checks one environment. An empty name is the active target.
func pingEnvironment(ctx context.Context, cmdCtx *CommandContext, name string, timeout time.Duration) pingResult {
	res := pingResult{Environment: name}
	if name == "" {
		res.Environment = "default"
	}

	target := cmdCtx.Cfg.Target
	if name != cmdCtx.Cfg.Environment {
		t, err := cmdCtx.Cfg.TargetFor(name)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		target = t
	}

	conn, err := connectTarget(target, cmdCtx.Logger.With(slog.String("environment", res.Environment)))
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer func() { _ = conn.Close() }()
	res.URL = conn.URL()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err = conn.Ping(ctx)
	res.Latency = time.Since(start).Round(time.Millisecond).String()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.OK = true
	return res
}

func renderPingResults(r *output.Renderer, results []pingResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}

	styles := r.Styles()
	rows := make([][]any, len(results))
	for i, res := range results {
		status := styles.Success.Render("OK")
		detail := res.Latency
		if !res.OK {
			status = styles.Error.Render("FAIL")
			detail = res.Error
		}
		rows[i] = []any{res.Environment, res.URL, status, detail}
	}
	return r.RenderResult(output.Result{
		Columns: []string{"Environment", "URL", "Status", "Detail"},
		Rows:    rows,
	})
}
