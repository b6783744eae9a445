package installer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"mcpctl/internal/registry"
	"mcpctl/pkg/logging"
)

// GitOptions are the inputs for a git-sourced install.
type GitOptions struct {
	// Name is the server name to register.
	Name string
	// RepoURL is the repository to clone.
	RepoURL string
	// PathInRepo optionally selects a subdirectory of the repository as the
	// install source.
	PathInRepo string
	// Branch optionally selects the branch to clone.
	Branch string
	// Port, when non-zero, makes the server a local SSE server on that port.
	Port int
	// Force replaces an existing server of the same name.
	Force bool
}

// InstallGit shallow-clones the requested branch into an ephemeral staging
// area, resolves PathInRepo inside it, and runs the local install against
// the result. The staging area is removed afterwards regardless of success.
func (i *Installer) InstallGit(ctx context.Context, opts GitOptions) (registry.Server, error) {
	if err := registry.ValidateName(opts.Name); err != nil {
		return registry.Server{}, err
	}

	staging := filepath.Join(os.TempDir(), "mcpctl-git-"+uuid.NewString())
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			logging.Warn("Installer", "Failed to remove git staging area %s: %v", staging, err)
		}
	}()

	args := []string{"clone", "--depth", "1"}
	if opts.Branch != "" {
		args = append(args, "--branch", opts.Branch)
	}
	args = append(args, opts.RepoURL, staging)

	logging.Info("Installer", "Cloning %s (branch %q) into %s", opts.RepoURL, opts.Branch, staging)
	cmd := exec.CommandContext(ctx, "git", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return registry.Server{}, fmt.Errorf("failed to clone %s: %w (output: %s)", opts.RepoURL, err, string(output))
	}

	sourceDir := staging
	if opts.PathInRepo != "" {
		sourceDir = filepath.Join(staging, opts.PathInRepo)
		if info, err := os.Stat(sourceDir); err != nil || !info.IsDir() {
			return registry.Server{}, fmt.Errorf("path %q does not exist in repository %s", opts.PathInRepo, opts.RepoURL)
		}
	}

	return i.InstallLocal(ctx, Options{
		Name:      opts.Name,
		SourceDir: sourceDir,
		Port:      opts.Port,
		Force:     opts.Force,
	})
}
