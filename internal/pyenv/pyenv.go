package pyenv

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"mcpctl/pkg/logging"
)

// Provisioner creates isolated Python runtimes and installs dependencies
// into them. The installer depends on this interface rather than on the
// concrete implementation so tests can substitute a stub.
type Provisioner interface {
	// CreateVenv provisions a self-contained runtime at venvDir.
	CreateVenv(ctx context.Context, venvDir string) error
	// InstallRequirements installs the manifest at requirementsFile into the
	// runtime at venvDir.
	InstallRequirements(ctx context.Context, venvDir, requirementsFile string) error
}

// VenvProvisioner provisions runtimes by shelling out to the system Python.
type VenvProvisioner struct{}

// NewProvisioner returns the default venv-based provisioner.
func NewProvisioner() *VenvProvisioner {
	return &VenvProvisioner{}
}

// CreateVenv runs `python -m venv <venvDir>` using the first system
// interpreter found.
func (p *VenvProvisioner) CreateVenv(ctx context.Context, venvDir string) error {
	python, err := findSystemInterpreter()
	if err != nil {
		return err
	}

	logging.Info("Pyenv", "Creating virtual environment at %s", venvDir)
	cmd := exec.CommandContext(ctx, python, "-m", "venv", venvDir)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to create virtual environment at %s: %w (output: %s)", venvDir, err, string(output))
	}
	return nil
}

// InstallRequirements runs the venv's pip against the given manifest.
func (p *VenvProvisioner) InstallRequirements(ctx context.Context, venvDir, requirementsFile string) error {
	pip := PipPath(venvDir)

	logging.Info("Pyenv", "Installing dependencies from %s into %s", requirementsFile, venvDir)
	cmd := exec.CommandContext(ctx, pip, "install", "-r", requirementsFile)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to install requirements from %s: %w (output: %s)", requirementsFile, err, string(output))
	}
	return nil
}

// PythonPath returns the interpreter inside a provisioned runtime. The
// relative layout is platform-conditional: Scripts\ on Windows, bin/
// elsewhere.
func PythonPath(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts", "python.exe")
	}
	return filepath.Join(venvDir, "bin", "python")
}

// PipPath returns the package-install entry point inside a provisioned
// runtime.
func PipPath(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts", "pip.exe")
	}
	return filepath.Join(venvDir, "bin", "pip")
}

func findSystemInterpreter() (string, error) {
	for _, candidate := range []string{"python3", "python"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no python interpreter found on PATH (tried python3, python)")
}
