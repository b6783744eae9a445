package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mcpctl/internal/cli"
	"mcpctl/internal/config"
	"mcpctl/internal/registry"
)

func newListCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered servers",
		Args:  cobra.NoArgs,
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

			servers := reg.List()
			if cli.OutputFormat(outputFormat) == cli.OutputFormatTable {
				fmt.Println(cli.ServersTable(servers))
				return nil
			}
			return cli.RenderStructured(os.Stdout, cli.OutputFormat(outputFormat), servers)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}
