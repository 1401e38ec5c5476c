package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/s2http/internal/cli/output"
	"github.com/leapstack-labs/s2http/pkg/dbapi"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run SQL against the target",
		Long: `Run SQL statements against the configured HTTP SQL endpoint.

SQL is taken from the arguments, from --input, or from stdin when it is not a
terminal. Several statements may be separated by semicolons. SELECT and SHOW
statements print their rows; other statements print the affected row count.

When invoked without SQL on a terminal, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  s2http query "SELECT * FROM orders LIMIT 10"

  # Run a script
  s2http query -i migrate.sql

  # Pipe SQL and emit JSON
  echo "SHOW TABLES" | s2http query -f json

  # Interactive mode
  s2http query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: auto, table, json, csv, markdown (default from --output)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx, err := NewCommandContext(cmd, opts.Format)
	if err != nil {
		return err
	}

	var script string
	in := cmd.InOrStdin()

	switch {
	case len(args) > 0:
		script = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		script = string(content)
	case !output.IsTerminal(in):
		content, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		script = string(content)
	default:
		return runQueryREPL(cmd, cmdCtx)
	}

	conn, err := cmdCtx.Connect()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	return executeScript(cmd.Context(), conn, cmdCtx.Renderer, script)
}

// executeScript runs every statement of script in order, stopping at the
// first failure.
func executeScript(ctx context.Context, conn *dbapi.Connection, r *output.Renderer, script string) error {
	stmts := SplitStatements(script)
	if len(stmts) == 0 {
		return fmt.Errorf("no SQL statement given")
	}

	cur := conn.Cursor()
	defer func() { _ = cur.Close() }()

	for i, stmt := range stmts {
		if err := executeAndRender(ctx, cur, r, stmt); err != nil {
			if len(stmts) > 1 {
				return fmt.Errorf("statement %d failed: %w", i+1, err)
			}
			return err
		}
	}
	return nil
}

func executeAndRender(ctx context.Context, cur *dbapi.Cursor, r *output.Renderer, stmt string) error {
	if err := cur.Execute(ctx, stmt); err != nil {
		return err
	}
	if cur.Description() == nil {
		return renderExecResult(r, cur.RowCount())
	}
	return renderCursor(r, cur)
}

// SplitStatements splits a script on semicolons outside quotes, backtick
// identifiers and comments. Empty statements are dropped.
func SplitStatements(script string) []string {
	var (
		stmts []string
		cur   strings.Builder
		quote rune
	)

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		if quote != 0 {
			cur.WriteRune(c)
			switch {
			case c == '\\' && quote != '`' && next != 0:
				cur.WriteRune(next)
				i++
			case c == quote && next == quote:
				cur.WriteRune(next)
				i++
			case c == quote:
				quote = 0
			}
			continue
		}

		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
			cur.WriteRune(c)
		case c == '-' && next == '-', c == '#':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			cur.WriteRune('\n')
		case c == '/' && next == '*':
			i += 2
			for i < len(runes) && !(runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/') {
				i++
			}
			i++
			cur.WriteRune(' ')
		case c == ';':
			flush()
		default:
			cur.WriteRune(c)
		}
	}
	flush()
	return stmts
}
