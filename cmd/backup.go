package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mcpctl/internal/backup"
	"mcpctl/internal/cli"
	"mcpctl/internal/config"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage timestamped backups of tracked configuration files",
	}

	cmd.AddCommand(newBackupCreateCmd())
	cmd.AddCommand(newBackupListCmd())
	cmd.AddCommand(newBackupRestoreCmd())
	cmd.AddCommand(newBackupPruneCmd())
	return cmd
}

// resolveConfigTarget maps a config type to the file it tracks under the
// current configuration.
func resolveConfigTarget(cfg config.Config, configType backup.ConfigType) (string, error) {
	switch configType {
	case backup.ConfigTypeRegistry:
		return cfg.RegistryPath, nil
	case backup.ConfigTypeCline, backup.ConfigTypeClaude:
		for _, editor := range cfg.EditorConfigs {
			if editor.Name == string(configType) {
				return editor.Path, nil
			}
		}
		return "", fmt.Errorf("no editor config named %q is configured", configType)
	default:
		return "", fmt.Errorf("unknown config type %q (valid: registry, cline, claude)", configType)
	}
}

func newBackupCreateCmd() *cobra.Command {
	var configType string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a backup of a tracked configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			target, err := resolveConfigTarget(cfg, backup.ConfigType(configType))
			if err != nil {
				return err
			}

			path, err := backup.NewManager(cfg.BackupDir).CreateBackup(target, "")
			if err != nil {
				return err
			}
			fmt.Printf("Created %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configType, "type", "t", string(backup.ConfigTypeRegistry), "Config to back up (registry, cline, claude)")
	return cmd
}

func newBackupListCmd() *cobra.Command {
	var (
		configType   string
		limit        int
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.ValidateOutputFormat(outputFormat); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			manager := backup.NewManager(cfg.BackupDir)
			backups, err := manager.List(backup.ConfigType(configType), limit)
			if err != nil {
				return err
			}

			if cli.OutputFormat(outputFormat) == cli.OutputFormatTable {
				fmt.Println(cli.BackupsTable(backups))
				fmt.Printf("Backup directory size: %.2f MB\n", manager.TotalSizeMB())
				return nil
			}
			return cli.RenderStructured(os.Stdout, cli.OutputFormat(outputFormat), backups)
		},
	}

	cmd.Flags().StringVarP(&configType, "type", "t", string(backup.ConfigTypeRegistry), "Config type to list (registry, cline, claude)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many backups (0 = all)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}

func newBackupRestoreCmd() *cobra.Command {
	var (
		configType string
		noSafety   bool
	)

	cmd := &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Restore a tracked configuration file from a backup",
		Long: `Copies the backup over the tracked file. The backup must be valid
JSON; the current file content is backed up first (pre-restore prefix)
unless --no-safety-backup is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			target, err := resolveConfigTarget(cfg, backup.ConfigType(configType))
			if err != nil {
				return err
			}

			if err := backup.NewManager(cfg.BackupDir).Restore(args[0], target, !noSafety); err != nil {
				return err
			}
			fmt.Printf("Restored %s from %s\n", target, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configType, "type", "t", string(backup.ConfigTypeRegistry), "Config to restore (registry, cline, claude)")
	cmd.Flags().BoolVar(&noSafety, "no-safety-backup", false, "Skip the pre-restore backup of the current file")
	return cmd
}

func newBackupPruneCmd() *cobra.Command {
	var (
		configType string
		keep       int
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old backups beyond the retention count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("keep") {
				keep = cfg.BackupKeepCount
			}

			removed, err := backup.NewManager(cfg.BackupDir).PruneOld(backup.ConfigType(configType), keep)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d old backup(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configType, "type", "t", "", "Config type to prune (empty = all)")
	cmd.Flags().IntVarP(&keep, "keep", "k", 0, "Backups to keep per config type (default: configured retention)")
	return cmd
}
