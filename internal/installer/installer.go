package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mcpctl/internal/cleanup"
	"mcpctl/internal/config"
	"mcpctl/internal/fsutil"
	"mcpctl/internal/pyenv"
	"mcpctl/internal/registry"
	"mcpctl/pkg/logging"
)

// requirementsFileName is the dependency manifest searched for at install
// time.
const requirementsFileName = "requirements.txt"

// wrapperFileName is the generated launch script inside a server directory.
const wrapperFileName = "run.sh"

// Options are the inputs for a local install.
type Options struct {
	// Name is the server name to register.
	Name string
	// SourceDir is the directory holding the server's source tree.
	SourceDir string
	// Port, when non-zero, makes the server a local SSE server on that port.
	Port int
	// Force replaces an existing server of the same name, removing its
	// registry entry and managed directory tree first.
	Force bool
}

// Installer orchestrates local and git installs: validate, stage, provision
// an isolated runtime, install dependencies, register, generate a wrapper.
type Installer struct {
	cfg     config.Config
	prov    pyenv.Provisioner
	cleaner *cleanup.Manager
}

// New returns an Installer using the given provisioner for runtime setup.
func New(cfg config.Config, prov pyenv.Provisioner) *Installer {
	return &Installer{
		cfg:     cfg,
		prov:    prov,
		cleaner: cleanup.NewManager(cfg),
	}
}

// InstallLocal installs a server from a source directory on disk and
// returns the registered record.
//
// Staging and runtime provisioning failures are fatal and abort before the
// registry is mutated; a missing dependency manifest or a failed dependency
// install is a warning, not an error. After a successful install the
// registry either contains the fully staged server or was never touched.
func (i *Installer) InstallLocal(ctx context.Context, opts Options) (registry.Server, error) {
	if err := registry.ValidateName(opts.Name); err != nil {
		return registry.Server{}, err
	}

	info, err := os.Stat(opts.SourceDir)
	if err != nil || !info.IsDir() {
		return registry.Server{}, &SourceNotFoundError{Path: opts.SourceDir}
	}

	reg, err := registry.Load(i.cfg.RegistryPath)
	if err != nil {
		return registry.Server{}, err
	}

	if reg.Has(opts.Name) {
		if !opts.Force {
			return registry.Server{}, &ServerAlreadyExistsError{Name: opts.Name}
		}
		logging.Info("Installer", "Force reinstall: removing existing server %s", opts.Name)
		if err := reg.Remove(opts.Name); err != nil {
			return registry.Server{}, err
		}
		if result := i.cleaner.RemoveServerArtifacts(opts.Name); !result.Success() {
			return registry.Server{}, fmt.Errorf("failed to remove existing artifacts for %s: %v", opts.Name, result.Failed[0].Err)
		}
		// Persist the removal before re-staging so a failure below cannot
		// leave a registry entry pointing at deleted files.
		if err := reg.Save(i.cfg.RegistryPath); err != nil {
			return registry.Server{}, err
		}
	}

	// Stage the source tree: <source>/src if present, else the source
	// directory itself, into a fresh <root>/<name>/src. Existing destination
	// content is fully overwritten, never merged.
	stageFrom := opts.SourceDir
	if info, err := os.Stat(filepath.Join(opts.SourceDir, "src")); err == nil && info.IsDir() {
		stageFrom = filepath.Join(opts.SourceDir, "src")
	}
	stagedDir := i.cfg.SourceDir(opts.Name)
	logging.Info("Installer", "Staging %s into %s", stageFrom, stagedDir)
	if err := fsutil.CopyDir(stageFrom, stagedDir); err != nil {
		i.cleaner.RemoveServerArtifacts(opts.Name)
		return registry.Server{}, fmt.Errorf("failed to stage source for %s: %w", opts.Name, err)
	}

	// A manifest sitting next to a src/ layout would be lost by the staging
	// copy; carry it into the server directory so the manifest search below
	// can still find it in the staged tree's parent.
	if stageFrom != opts.SourceDir {
		sideManifest := filepath.Join(opts.SourceDir, requirementsFileName)
		if _, err := os.Stat(sideManifest); err == nil {
			if err := fsutil.CopyFile(sideManifest, filepath.Join(i.cfg.ServerDir(opts.Name), requirementsFileName)); err != nil {
				logging.Warn("Installer", "Failed to carry %s into server directory: %v", sideManifest, err)
			}
		}
	}

	venvDir := i.cfg.VenvDir(opts.Name)
	if err := i.prov.CreateVenv(ctx, venvDir); err != nil {
		i.cleaner.RemoveServerArtifacts(opts.Name)
		return registry.Server{}, fmt.Errorf("failed to provision runtime for %s: %w", opts.Name, err)
	}

	requirements := i.findRequirements(stagedDir)
	if requirements == "" {
		logging.Warn("Installer", "No %s found for %s, skipping dependency install", requirementsFileName, opts.Name)
	} else if err := i.prov.InstallRequirements(ctx, venvDir, requirements); err != nil {
		logging.Warn("Installer", "Dependency install failed for %s: %v", opts.Name, err)
	}

	server := registry.NewLocalServer(opts.Name, registry.LocalConfig{
		SourceDir:        stagedDir,
		VenvDir:          venvDir,
		RequirementsFile: requirements,
		Port:             opts.Port,
	})
	if err := server.Validate(i.cfg.ManagedRoot); err != nil {
		i.cleaner.RemoveServerArtifacts(opts.Name)
		return registry.Server{}, err
	}
	if err := reg.Add(server); err != nil {
		i.cleaner.RemoveServerArtifacts(opts.Name)
		return registry.Server{}, err
	}
	if err := reg.Save(i.cfg.RegistryPath); err != nil {
		// A server with staged files but no registry entry is a half state;
		// roll the staging back so neither side exists.
		i.cleaner.RemoveServerArtifacts(opts.Name)
		return registry.Server{}, err
	}

	// Wrapper generation is best-effort: a server without a wrapper is still
	// runnable through `mcpctl run`.
	if wrapperPath := i.generateWrapper(server); wrapperPath != "" {
		server.Local.WrapperPath = wrapperPath
		if err := reg.Update(server); err == nil {
			if err := reg.Save(i.cfg.RegistryPath); err != nil {
				logging.Warn("Installer", "Failed to persist wrapper path for %s: %v", opts.Name, err)
			}
		}
	}

	logging.Info("Installer", "Installed server %s (%s)", server.Name, server.Type)
	return server, nil
}

// findRequirements searches for a dependency manifest in the staged source
// directory, its parent (the server directory), and the shared location two
// levels up (the managed root). Returns "" when none exists.
func (i *Installer) findRequirements(stagedDir string) string {
	candidates := []string{
		filepath.Join(stagedDir, requirementsFileName),
		filepath.Join(stagedDir, "..", requirementsFileName),
		filepath.Join(stagedDir, "..", "..", requirementsFileName),
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return filepath.Clean(candidate)
		}
	}
	return ""
}

// generateWrapper renders the launch script for a freshly installed server.
// Returns the wrapper path, or "" when the entry point cannot be resolved
// or generation fails.
func (i *Installer) generateWrapper(server registry.Server) string {
	local, ok := server.AsLocal()
	if !ok {
		return ""
	}

	entryPoint, moduleDir, ok := pyenv.ResolveEntryPoint(local.SourceDir)
	if !ok {
		logging.Warn("Installer", "No entry point found for %s, skipping wrapper generation", server.Name)
		return ""
	}

	path, err := pyenv.GenerateWrapper(filepath.Join(i.cfg.ServerDir(server.Name), wrapperFileName), pyenv.WrapperData{
		ServerName: server.Name,
		Python:     pyenv.PythonPath(local.VenvDir),
		EntryPoint: entryPoint,
		WorkDir:    filepath.Dir(entryPoint),
		ModulePath: moduleDir,
	})
	if err != nil {
		logging.Warn("Installer", "Wrapper generation failed for %s: %v", server.Name, err)
		return ""
	}
	return path
}
