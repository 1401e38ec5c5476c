package commands

import (
	"github.com/leapstack-labs/s2http/internal/cli/output"
	"github.com/spf13/cobra"
)

// TablesOptions holds options for the tables command.
type TablesOptions struct {
	Format string
	Schema string
}

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	opts := &TablesOptions{}

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables of the target database",
		Example: `  s2http tables
  s2http tables --schema analytics -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd, opts.Format)
			if err != nil {
				return err
			}
			a, err := cmdCtx.OpenAdapter(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			tables, err := a.ListTables(cmd.Context(), opts.Schema)
			if err != nil {
				return err
			}
			return renderTables(cmdCtx.Renderer, tables)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: auto, table, json, csv, markdown")
	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "Schema to list (default: target database)")

	return cmd
}

func renderTables(r *output.Renderer, tables []string) error {
	rows := make([][]any, len(tables))
	for i, t := range tables {
		rows[i] = []any{t}
	}
	if tables == nil {
		tables = []string{}
	}
	return r.RenderRecords([]string{"table"}, rows, tables)
}
