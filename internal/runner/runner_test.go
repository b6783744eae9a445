package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpctl/internal/config"
	"mcpctl/internal/registry"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	return config.Config{
		ManagedRoot:  root,
		RegistryPath: filepath.Join(root, "registry.json"),
		BackupDir:    filepath.Join(root, "backups"),
		LogsDir:      filepath.Join(root, "logs"),
	}
}

// fakePython is a shell script standing in for the venv interpreter. It is
// invoked as `python <entrypoint> <transport>`.
const fakePython = `#!/bin/sh
printf '%s\n' "$2" > "$(dirname "$0")/transport.txt"
pwd > "$(dirname "$0")/cwd.txt"
printf '%s\n' "$PYTHONPATH" > "$(dirname "$0")/pythonpath.txt"
echo "server up"
exit 0
`

const fakePythonFailing = `#!/bin/sh
echo "boom" >&2
exit 3
`

// fakePythonSlow stays alive long enough for a signal to arrive, then
// exits non-zero so a clean-stop result is distinguishable from a normal
// exit.
const fakePythonSlow = `#!/bin/sh
echo "started"
sleep 2
exit 7
`

// installFixture registers a local server backed by a fake interpreter.
func installFixture(t *testing.T, cfg config.Config, name, interpreter string, nested bool) registry.Server {
	t.Helper()
	sourceDir := cfg.SourceDir(name)
	mainDir := sourceDir
	if nested {
		mainDir = filepath.Join(sourceDir, "src")
	}
	require.NoError(t, os.MkdirAll(mainDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(mainDir, "main.py"), []byte("# fake"), 0644))

	binDir := filepath.Join(cfg.VenvDir(name), "bin")
	require.NoError(t, os.MkdirAll(binDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "python"), []byte(interpreter), 0755))

	server := registry.NewLocalServer(name, registry.LocalConfig{
		SourceDir: sourceDir,
		VenvDir:   cfg.VenvDir(name),
	})

	reg, err := registry.Load(cfg.RegistryPath)
	require.NoError(t, err)
	require.NoError(t, reg.Add(server))
	require.NoError(t, reg.Save(cfg.RegistryPath))
	return server
}

func newTestRunner(cfg config.Config) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	r := New(cfg)
	var stdout, stderr bytes.Buffer
	r.Stdin = bytes.NewReader(nil)
	r.Stdout = &stdout
	r.Stderr = &stderr
	return r, &stdout, &stderr
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter is a shell script")
	}
}

func TestRun_ServerNotFound(t *testing.T) {
	r, _, _ := newTestRunner(testConfig(t))
	err := r.Run(context.Background(), "ghost", TransportStdio)
	var notFound *registry.ServerNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestRun_RemoteServerNotRunnable(t *testing.T) {
	cfg := testConfig(t)
	remote, err := registry.NewRemoteServer("jira", "https://jira.example.com", "")
	require.NoError(t, err)
	// Disabled too: the remote check must win, it comes first.
	remote.Disabled = true
	reg := registry.New()
	require.NoError(t, reg.Add(remote))
	require.NoError(t, reg.Save(cfg.RegistryPath))

	r, _, _ := newTestRunner(cfg)
	runErr := r.Run(context.Background(), "jira", TransportStdio)
	var notRunnable *RemoteServerNotRunnableError
	assert.True(t, errors.As(runErr, &notRunnable))
}

func TestRun_DisabledServer(t *testing.T) {
	skipOnWindows(t)
	cfg := testConfig(t)
	server := installFixture(t, cfg, "echo", fakePython, false)

	server.Disabled = true
	reg, err := registry.Load(cfg.RegistryPath)
	require.NoError(t, err)
	require.NoError(t, reg.Update(server))
	require.NoError(t, reg.Save(cfg.RegistryPath))

	r, _, _ := newTestRunner(cfg)
	runErr := r.Run(context.Background(), "echo", TransportStdio)
	var disabled *ServerDisabledError
	assert.True(t, errors.As(runErr, &disabled))
}

func TestRun_SourceMissing(t *testing.T) {
	skipOnWindows(t)
	cfg := testConfig(t)
	installFixture(t, cfg, "echo", fakePython, false)
	require.NoError(t, os.RemoveAll(cfg.SourceDir("echo")))

	r, _, _ := newTestRunner(cfg)
	err := r.Run(context.Background(), "echo", TransportStdio)
	var missing *SourceMissingError
	assert.True(t, errors.As(err, &missing))
}

func TestRun_RuntimeMissing(t *testing.T) {
	skipOnWindows(t)
	cfg := testConfig(t)
	installFixture(t, cfg, "echo", fakePython, false)
	require.NoError(t, os.RemoveAll(cfg.VenvDir("echo")))

	r, _, _ := newTestRunner(cfg)
	err := r.Run(context.Background(), "echo", TransportStdio)
	var missing *RuntimeMissingError
	assert.True(t, errors.As(err, &missing))
}

func TestRun_InvalidTransport(t *testing.T) {
	skipOnWindows(t)
	cfg := testConfig(t)
	installFixture(t, cfg, "echo", fakePython, false)

	r, _, _ := newTestRunner(cfg)
	err := r.Run(context.Background(), "echo", "websocket")
	var invalid *InvalidTransportError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "websocket", invalid.Transport)
}

func TestRun_EntryPointNotFound(t *testing.T) {
	skipOnWindows(t)
	cfg := testConfig(t)
	installFixture(t, cfg, "echo", fakePython, false)
	require.NoError(t, os.Remove(filepath.Join(cfg.SourceDir("echo"), "main.py")))

	r, _, _ := newTestRunner(cfg)
	err := r.Run(context.Background(), "echo", TransportStdio)
	var notFound *EntryPointNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestRun_Success(t *testing.T) {
	skipOnWindows(t)
	cfg := testConfig(t)
	installFixture(t, cfg, "echo", fakePython, false)

	r, stdout, _ := newTestRunner(cfg)
	require.NoError(t, r.Run(context.Background(), "echo", TransportStdio))
	assert.Contains(t, stdout.String(), "server up")

	binDir := filepath.Join(cfg.VenvDir("echo"), "bin")

	// The transport is the sole positional argument after the entry point.
	transport, err := os.ReadFile(filepath.Join(binDir, "transport.txt"))
	require.NoError(t, err)
	assert.Equal(t, "stdio\n", string(transport))

	// The working directory is the entry point's containing directory.
	cwd, err := os.ReadFile(filepath.Join(binDir, "cwd.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(cwd), cfg.SourceDir("echo"))
}

func TestRun_NestedLayoutPrependsModulePath(t *testing.T) {
	skipOnWindows(t)
	cfg := testConfig(t)
	installFixture(t, cfg, "echo", fakePython, true)

	r, _, _ := newTestRunner(cfg)
	require.NoError(t, r.Run(context.Background(), "echo", TransportSSE))

	pythonPath, err := os.ReadFile(filepath.Join(cfg.VenvDir("echo"), "bin", "pythonpath.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(pythonPath), filepath.Join(cfg.SourceDir("echo"), "src"))
}

func TestRun_InterruptIsCleanStop(t *testing.T) {
	skipOnWindows(t)
	cfg := testConfig(t)
	installFixture(t, cfg, "echo", fakePythonSlow, false)

	// Deliver an interrupt to this process while the child is still alive.
	// The runner's handler swallows it; the child keeps running and exits 7,
	// which must be reported as a clean stop, not a ServerExitError.
	go func() {
		time.Sleep(300 * time.Millisecond)
		proc, err := os.FindProcess(os.Getpid())
		if err == nil {
			_ = proc.Signal(os.Interrupt)
		}
	}()

	r, stdout, _ := newTestRunner(cfg)
	require.NoError(t, r.Run(context.Background(), "echo", TransportStdio))
	assert.Contains(t, stdout.String(), "started")
}

func TestRun_NonZeroExit(t *testing.T) {
	skipOnWindows(t)
	cfg := testConfig(t)
	installFixture(t, cfg, "echo", fakePythonFailing, false)

	r, _, _ := newTestRunner(cfg)
	err := r.Run(context.Background(), "echo", TransportStdio)
	var exit *ServerExitError
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, 3, exit.Code)
	assert.Contains(t, exit.Stderr, "boom")
}
