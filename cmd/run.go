package cmd

import (
	"github.com/spf13/cobra"

	"mcpctl/internal/config"
	"mcpctl/internal/runner"
)

func newRunCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run a registered local server in the foreground",
		Long: `Launches the server's entry point inside its provisioned runtime and
blocks until it exits. With stdio transport the server speaks over this
process's standard streams; Ctrl-C stops the server cleanly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runner.New(cfg).Run(cmd.Context(), args[0], transport)
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", runner.TransportStdio, "Transport to pass to the server (stdio, sse)")
	return cmd
}
