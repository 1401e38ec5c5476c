package commands

import (
	"github.com/leapstack-labs/s2http/internal/cli/output"
	"github.com/leapstack-labs/s2http/pkg/core"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "schema <table>",
		Short: "Show the columns of a table",
		Long: `Show the columns of a table from information_schema.

The table may be qualified as schema.table; unqualified names resolve against
the target database.`,
		Example: `  s2http schema orders
  s2http schema analytics.events -f json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd, format)
			if err != nil {
				return err
			}
			a, err := cmdCtx.OpenAdapter(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			meta, err := a.GetTableMetadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderSchema(cmdCtx.Renderer, meta)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: auto, table, json, csv, markdown")

	return cmd
}

// columnInfo represents schema column information.
type columnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	PK       bool   `json:"pk"`
}

type schemaOutput struct {
	Schema   string       `json:"schema"`
	Name     string       `json:"name"`
	RowCount int64        `json:"rowCount"`
	Columns  []columnInfo `json:"columns"`
}

func renderSchema(r *output.Renderer, meta *core.TableMetadata) error {
	out := schemaOutput{
		Schema:   meta.Schema,
		Name:     meta.Name,
		RowCount: meta.RowCount,
		Columns:  make([]columnInfo, len(meta.Columns)),
	}
	rows := make([][]any, len(meta.Columns))
	for i, c := range meta.Columns {
		out.Columns[i] = columnInfo{Name: c.Name, Type: c.Type, Nullable: c.Nullable, PK: c.PrimaryKey}

		nullable := "NO"
		if c.Nullable {
			nullable = "YES"
		}
		key := ""
		if c.PrimaryKey {
			key = "PRI"
		}
		rows[i] = []any{c.Name, c.Type, nullable, key}
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	if r.EffectiveMode() != output.ModeCSV {
		title := meta.Name
		if meta.Schema != "" {
			title = meta.Schema + "." + meta.Name
		}
		r.Println(r.Styles().Bold.Render("Table: " + title))
		r.Printf("Rows: %d\n", meta.RowCount)
	}
	return r.RenderResult(output.Result{
		Columns: []string{"Column", "Type", "Nullable", "Key"},
		Rows:    rows,
	})
}
