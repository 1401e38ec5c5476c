package commands

import (
	"fmt"

	"github.com/leapstack-labs/s2http/internal/cli/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging s2http.yaml, S2HTTP_* environment
variables and flags. Passwords are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if path := config.GetConfigFileUsed(); path != "" {
				_, _ = fmt.Fprintf(w, "# config file: %s\n", path)
			} else {
				_, _ = fmt.Fprintln(w, "# config file: none")
			}

			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(getConfig().Redacted()); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return enc.Close()
		},
	}
}
