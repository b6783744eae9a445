package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mcpctl/internal/cleanup"
	"mcpctl/internal/cli"
	"mcpctl/internal/config"
	"mcpctl/internal/registry"
)

func newRemoveCmd() *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a server from the registry",
		Long: `Deletes the registry entry. With --purge the server's managed
artifacts (runtime, staged source, logs, server directory) are removed
as well; without it they stay on disk and show up as orphans.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			reg, err := registry.Load(cfg.RegistryPath)
			if err != nil {
				return err
			}
			server, err := reg.Get(name)
			if err != nil {
				return err
			}
			if err := reg.Remove(name); err != nil {
				return err
			}
			if err := reg.Save(cfg.RegistryPath); err != nil {
				return err
			}
			fmt.Printf("Removed %s from the registry\n", name)

			if !purge {
				return nil
			}
			result := cleanup.NewManager(cfg).CleanupServerFiles(server, false)
			fmt.Println(cli.CleanupTable(result, false))
			if !result.Success() {
				return fmt.Errorf("failed to remove %d artifact(s) for %s", len(result.Failed), name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "Also remove the server's files under the managed root")
	return cmd
}
