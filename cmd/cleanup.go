package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mcpctl/internal/cleanup"
	"mcpctl/internal/cli"
	"mcpctl/internal/config"
	"mcpctl/internal/registry"
)

func newCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove server artifacts and find orphaned files",
	}

	cmd.AddCommand(newCleanupServerCmd())
	cmd.AddCommand(newCleanupOrphansCmd())
	return cmd
}

func newCleanupServerCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "server <name>",
		Short: "Remove the filesystem artifacts of a registered server",
		Long: `Removes the server's runtime, staged source, log file, and managed
directory. The registry entry itself is untouched; use remove --purge
to do both. Removal continues past individual failures.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			reg, err := registry.Load(cfg.RegistryPath)
			if err != nil {
				return err
			}
			server, err := reg.Get(args[0])
			if err != nil {
				return err
			}

			result := cleanup.NewManager(cfg).CleanupServerFiles(server, dryRun)
			fmt.Println(cli.CleanupTable(result, dryRun))
			if !result.Success() {
				return fmt.Errorf("failed to remove %d artifact(s) for %s", len(result.Failed), args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be removed without touching the filesystem")
	return cmd
}

func newCleanupOrphansCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "List files under the managed root not owned by any registered server",
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

			orphans := cleanup.NewManager(cfg).FindUnusedFiles(reg.Names())
			if cli.OutputFormat(outputFormat) == cli.OutputFormatTable {
				fmt.Println(cli.OrphansTable(orphans))
				return nil
			}
			return cli.RenderStructured(os.Stdout, cli.OutputFormat(outputFormat), orphans)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}
