package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mcpctl/internal/cli"
	"mcpctl/internal/config"
	"mcpctl/internal/reconcile"
	"mcpctl/internal/registry"
)

func newReconcileCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare the registry against editor configurations",
		Long: `Reads each configured editor config file (Cline, Claude desktop),
merges their server entries, and reports servers that are registered
but not configured anywhere (orphaned) and servers configured
externally but not registered (unmanaged). Read-only: no file is
modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.ValidateOutputFormat(outputFormat); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			reg, err := registry.Load(cfg.RegistryPath)
			if err != nil {
				return err
			}

			report := reconcile.Reconcile(reg, cfg.EditorConfigs)
			if cli.OutputFormat(outputFormat) == cli.OutputFormatTable {
				fmt.Print(cli.ReconcileTables(report))
				return nil
			}
			return cli.RenderStructured(os.Stdout, cli.OutputFormat(outputFormat), report)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}
