package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"mcpctl/internal/backup"
	"mcpctl/internal/installer"
	"mcpctl/internal/registry"
	"mcpctl/internal/runner"
	"mcpctl/pkg/logging"
)

// Exit codes for CLI commands. Each maps 1:1 to a class of the error
// taxonomy so scripts can react without parsing messages.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error.
	ExitCodeError = 1
	// ExitCodeValidation indicates a bad name, transport, URL, or flag value.
	ExitCodeValidation = 2
	// ExitCodeConflict indicates a duplicate server or an existing install
	// without --force.
	ExitCodeConflict = 3
	// ExitCodeNotFound indicates a missing server, backup, source, or runtime.
	ExitCodeNotFound = 4
	// ExitCodeCorrupt indicates an unparseable registry or backup file.
	ExitCodeCorrupt = 5
	// ExitCodeServerExit indicates the child server process exited non-zero.
	ExitCodeServerExit = 6
)

var rootDebug bool

// rootCmd represents the base command for the mcpctl application.
var rootCmd = &cobra.Command{
	Use:   "mcpctl",
	Short: "Manage locally installed and remote MCP tool servers",
	Long: `mcpctl tracks MCP tool servers in a local registry, provisions
isolated Python runtimes for them, runs them as managed subprocesses,
and keeps the registry consistent with external editor configurations
(Cline, Claude desktop).`,
	// SilenceUsage prevents cobra from printing usage on errors that are
	// handled by the application.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelInfo
		if rootDebug {
			level = logging.LevelDebug
		}
		logging.Init(level, os.Stderr)
	},
}

// SetVersion sets the version for the root command. Called from main to
// inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcpctl version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode translates the error taxonomy into semantic exit codes.
func getExitCode(err error) int {
	var invalidName *registry.InvalidNameError
	var invalidURL *registry.InvalidURLError
	var invalidTransport *runner.InvalidTransportError
	if errors.As(err, &invalidName) || errors.As(err, &invalidURL) || errors.As(err, &invalidTransport) {
		return ExitCodeValidation
	}

	var duplicate *registry.DuplicateServerError
	var alreadyExists *installer.ServerAlreadyExistsError
	if errors.As(err, &duplicate) || errors.As(err, &alreadyExists) {
		return ExitCodeConflict
	}

	var notFound *registry.ServerNotFoundError
	var sourceMissingInstall *installer.SourceNotFoundError
	var sourceMissing *runner.SourceMissingError
	var runtimeMissing *runner.RuntimeMissingError
	var entryPointMissing *runner.EntryPointNotFoundError
	var fileMissing *backup.FileNotFoundError
	if errors.As(err, &notFound) || errors.As(err, &sourceMissingInstall) ||
		errors.As(err, &sourceMissing) || errors.As(err, &runtimeMissing) ||
		errors.As(err, &entryPointMissing) || errors.As(err, &fileMissing) {
		return ExitCodeNotFound
	}

	var corruptRegistry *registry.CorruptRegistryError
	var corruptBackup *backup.CorruptBackupError
	if errors.As(err, &corruptRegistry) || errors.As(err, &corruptBackup) {
		return ExitCodeCorrupt
	}

	var serverExit *runner.ServerExitError
	if errors.As(err, &serverExit) {
		return ExitCodeServerExit
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newReconcileCmd())
}
