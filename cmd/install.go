package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mcpctl/internal/cli"
	"mcpctl/internal/config"
	"mcpctl/internal/installer"
	"mcpctl/internal/pyenv"
	"mcpctl/internal/registry"
)

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install and register an MCP server",
	}

	cmd.AddCommand(newInstallLocalCmd())
	cmd.AddCommand(newInstallGitCmd())
	cmd.AddCommand(newInstallRemoteCmd())
	return cmd
}

func newInstallLocalCmd() *cobra.Command {
	var (
		sourceDir string
		port      int
		force     bool
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:   "local <name>",
		Short: "Install a server from a local source directory",
		Long: `Copies the source tree into the managed root, provisions an isolated
Python runtime, installs dependencies from requirements.txt if present,
registers the server, and generates a launch wrapper.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if !quiet {
				s := cli.NewSpinner(fmt.Sprintf("Installing %s...", args[0]))
				defer s.Stop()
			}

			inst := installer.New(cfg, pyenv.NewProvisioner())
			server, err := inst.InstallLocal(cmd.Context(), installer.Options{
				Name:      args[0],
				SourceDir: sourceDir,
				Port:      port,
				Force:     force,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Installed %s (%s)\n", server.Name, server.Type)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceDir, "source", "s", "", "Source directory containing the server code")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "SSE port (omit for stdio transport)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing server of the same name")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func newInstallGitCmd() *cobra.Command {
	var (
		repoURL    string
		pathInRepo string
		branch     string
		port       int
		force      bool
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "git <name>",
		Short: "Install a server from a git repository",
		Long: `Shallow-clones the repository into a temporary staging area and
installs from it (or from --path inside it) exactly like a local
install. The staging area is removed afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if !quiet {
				s := cli.NewSpinner(fmt.Sprintf("Installing %s from %s...", args[0], repoURL))
				defer s.Stop()
			}

			inst := installer.New(cfg, pyenv.NewProvisioner())
			server, err := inst.InstallGit(cmd.Context(), installer.GitOptions{
				Name:       args[0],
				RepoURL:    repoURL,
				PathInRepo: pathInRepo,
				Branch:     branch,
				Port:       port,
				Force:      force,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Installed %s (%s)\n", server.Name, server.Type)
			return nil
		},
	}

	cmd.Flags().StringVarP(&repoURL, "repo", "r", "", "Git repository URL to clone")
	cmd.Flags().StringVar(&pathInRepo, "path", "", "Subdirectory of the repository to install from")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch to clone (default: repository default)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "SSE port (omit for stdio transport)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing server of the same name")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}

func newInstallRemoteCmd() *cobra.Command {
	var (
		url    string
		apiKey string
	)

	cmd := &cobra.Command{
		Use:   "remote <name>",
		Short: "Register a remote SSE server",
		Long: `Registers a server reachable over SSE at a remote URL. Nothing is
installed locally; the URL is validated, normalized to end in /sse,
and stored with the optional API key.`,
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

			server, err := registry.NewRemoteServer(args[0], url, apiKey)
			if err != nil {
				return err
			}
			if err := server.Validate(cfg.ManagedRoot); err != nil {
				return err
			}
			if err := reg.Add(server); err != nil {
				return err
			}
			if err := reg.Save(cfg.RegistryPath); err != nil {
				return err
			}

			fmt.Printf("Registered %s -> %s\n", server.Name, server.Remote.URL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "Remote server URL (http or https)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key sent to the remote server")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}
