package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"

	"mcpctl/internal/config"
	"mcpctl/internal/pyenv"
	"mcpctl/internal/registry"
	"mcpctl/pkg/logging"
)

// Accepted transport values.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// pythonPathEnv is the module-search environment variable prepended (never
// replaced) for src/ layouts.
const pythonPathEnv = "PYTHONPATH"

// Runner resolves a registered server's entry point and environment and
// runs it as a blocking subprocess.
type Runner struct {
	cfg config.Config

	// Stdin, Stdout and Stderr are the child's wiring; they default to the
	// process's own streams so stdio transport framing passes through
	// untouched. Output is additionally captured for error reporting.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a Runner wired to the current process's standard streams.
func New(cfg config.Config) *Runner {
	return &Runner{
		cfg:    cfg,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run launches the named server with the given transport and blocks until
// the child exits. No timeout is imposed: killing a server that may be
// mid-handshake would break stdio framing, so a hung child hangs the call.
// An interrupt signal is treated as a normal stop, not an error. A non-zero
// child exit is returned as a *ServerExitError carrying the exit code and
// captured output.
func (r *Runner) Run(ctx context.Context, name, transport string) error {
	reg, err := registry.Load(r.cfg.RegistryPath)
	if err != nil {
		return err
	}
	server, err := reg.Get(name)
	if err != nil {
		return err
	}

	local, ok := server.AsLocal()
	if !ok {
		return &RemoteServerNotRunnableError{Name: name}
	}
	if server.Disabled {
		return &ServerDisabledError{Name: name}
	}
	if info, err := os.Stat(local.SourceDir); err != nil || !info.IsDir() {
		return &SourceMissingError{Name: name, Path: local.SourceDir}
	}
	if info, err := os.Stat(local.VenvDir); err != nil || !info.IsDir() {
		return &RuntimeMissingError{Name: name, Path: local.VenvDir}
	}
	if transport != TransportStdio && transport != TransportSSE {
		return &InvalidTransportError{Transport: transport}
	}

	entryPoint, moduleDir, ok := pyenv.ResolveEntryPoint(local.SourceDir)
	if !ok {
		return &EntryPointNotFoundError{Name: name, SourceDir: local.SourceDir}
	}

	python := pyenv.PythonPath(local.VenvDir)
	cmd := exec.CommandContext(ctx, python, entryPoint, transport)
	cmd.Dir = filepath.Dir(entryPoint)
	cmd.Env = childEnv(moduleDir)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdin = r.Stdin
	cmd.Stdout = io.MultiWriter(r.Stdout, &stdoutBuf)
	cmd.Stderr = io.MultiWriter(r.Stderr, &stderrBuf)

	logging.Info("Runner", "Starting server %s (transport %s, entry point %s)", name, transport, entryPoint)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server %s: %w", name, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	interrupted := false
	for {
		select {
		case <-sigCh:
			// The child shares the foreground process group and receives the
			// interrupt too; just note it and wait for the child to go away.
			logging.Info("Runner", "Interrupt received, stopping server %s", name)
			interrupted = true
		case waitErr := <-done:
			if interrupted {
				logging.Info("Runner", "Server %s stopped", name)
				return nil
			}
			if waitErr != nil {
				var exitErr *exec.ExitError
				if errors.As(waitErr, &exitErr) {
					return &ServerExitError{
						Name:   name,
						Code:   exitErr.ExitCode(),
						Stdout: stdoutBuf.String(),
						Stderr: stderrBuf.String(),
					}
				}
				return fmt.Errorf("server %s failed: %w", name, waitErr)
			}
			logging.Info("Runner", "Server %s exited cleanly", name)
			return nil
		}
	}
}

// childEnv returns the parent environment with the module-search variable
// prepended when a src/ layout requires it.
func childEnv(moduleDir string) []string {
	env := os.Environ()
	if moduleDir == "" {
		return env
	}
	prefix := pythonPathEnv + "="
	for i, entry := range env {
		if len(entry) > len(prefix) && entry[:len(prefix)] == prefix {
			env[i] = prefix + moduleDir + string(os.PathListSeparator) + entry[len(prefix):]
			return env
		}
	}
	return append(env, prefix+moduleDir)
}
