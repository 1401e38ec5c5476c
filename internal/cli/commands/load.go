package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <table> <file.csv>",
		Short: "Load a CSV file into a table",
		Long: `Replace a table with the contents of a CSV file.

The table is dropped and recreated with one TEXT column per CSV header field,
then every record is inserted.`,
		Example: `  s2http load raw_customers seeds/customers.csv`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, path := args[0], args[1]
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("failed to read CSV file: %w", err)
			}

			cmdCtx, err := NewCommandContext(cmd, "")
			if err != nil {
				return err
			}
			a, err := cmdCtx.OpenAdapter(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.LoadCSV(cmd.Context(), table, path); err != nil {
				return fmt.Errorf("failed to load %s: %w", table, err)
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Loaded %s into %s", path, table))
			return nil
		},
	}
}
