package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpctl/internal/config"
	"mcpctl/internal/registry"
)

// stubProvisioner satisfies pyenv.Provisioner without touching Python.
type stubProvisioner struct {
	createErr    error
	installErr   error
	createdVenvs []string
	installed    []string
}

func (s *stubProvisioner) CreateVenv(_ context.Context, venvDir string) error {
	if s.createErr != nil {
		return s.createErr
	}
	if err := os.MkdirAll(venvDir, 0755); err != nil {
		return err
	}
	s.createdVenvs = append(s.createdVenvs, venvDir)
	return nil
}

func (s *stubProvisioner) InstallRequirements(_ context.Context, _, requirementsFile string) error {
	if s.installErr != nil {
		return s.installErr
	}
	s.installed = append(s.installed, requirementsFile)
	return nil
}

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

// flatSource creates a source directory with main.py at its top level.
func flatSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('hi')"), 0644))
	return dir
}

// nestedSource creates a source directory with a src/ layout and a
// requirements manifest beside it.
func nestedSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.py"), []byte("print('hi')"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("mcp\n"), 0644))
	return dir
}

func TestInstallLocal_FlatLayout(t *testing.T) {
	cfg := testConfig(t)
	prov := &stubProvisioner{}
	inst := New(cfg, prov)

	server, err := inst.InstallLocal(context.Background(), Options{Name: "echo", SourceDir: flatSource(t)})
	require.NoError(t, err)

	assert.Equal(t, registry.ServerTypeLocalStdio, server.Type)
	assert.FileExists(t, filepath.Join(cfg.SourceDir("echo"), "main.py"))
	assert.Equal(t, []string{cfg.VenvDir("echo")}, prov.createdVenvs)
	assert.Empty(t, prov.installed, "no manifest was present")

	// The wrapper was generated and its path persisted.
	assert.FileExists(t, filepath.Join(cfg.ServerDir("echo"), "run.sh"))
	reg, err := registry.Load(cfg.RegistryPath)
	require.NoError(t, err)
	persisted, err := reg.Get("echo")
	require.NoError(t, err)
	local, ok := persisted.AsLocal()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(cfg.ServerDir("echo"), "run.sh"), local.WrapperPath)
}

func TestInstallLocal_SrcLayoutFindsSideManifest(t *testing.T) {
	cfg := testConfig(t)
	prov := &stubProvisioner{}
	inst := New(cfg, prov)

	server, err := inst.InstallLocal(context.Background(), Options{Name: "weather", SourceDir: nestedSource(t)})
	require.NoError(t, err)

	// Only src/ content is staged.
	assert.FileExists(t, filepath.Join(cfg.SourceDir("weather"), "main.py"))
	// The side manifest was carried into the server directory and found.
	require.Len(t, prov.installed, 1)
	assert.Equal(t, filepath.Join(cfg.ServerDir("weather"), "requirements.txt"), prov.installed[0])
	assert.Equal(t, prov.installed[0], server.Local.RequirementsFile)
}

func TestInstallLocal_SharedBaseManifest(t *testing.T) {
	cfg := testConfig(t)
	// A shared manifest at the managed root, two levels above staged src.
	require.NoError(t, os.MkdirAll(cfg.ManagedRoot, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ManagedRoot, "requirements.txt"), []byte("mcp\n"), 0644))

	prov := &stubProvisioner{}
	inst := New(cfg, prov)

	_, err := inst.InstallLocal(context.Background(), Options{Name: "echo", SourceDir: flatSource(t)})
	require.NoError(t, err)
	require.Len(t, prov.installed, 1)
	assert.Equal(t, filepath.Join(cfg.ManagedRoot, "requirements.txt"), prov.installed[0])
}

func TestInstallLocal_PortMakesSSE(t *testing.T) {
	cfg := testConfig(t)
	inst := New(cfg, &stubProvisioner{})

	server, err := inst.InstallLocal(context.Background(), Options{Name: "weather", SourceDir: flatSource(t), Port: 8123})
	require.NoError(t, err)
	assert.Equal(t, registry.ServerTypeLocalSSE, server.Type)
	assert.Equal(t, 8123, server.Local.Port)
}

func TestInstallLocal_InvalidName(t *testing.T) {
	inst := New(testConfig(t), &stubProvisioner{})
	_, err := inst.InstallLocal(context.Background(), Options{Name: "bad name!", SourceDir: flatSource(t)})
	var invalid *registry.InvalidNameError
	assert.True(t, errors.As(err, &invalid))
}

func TestInstallLocal_MissingSource(t *testing.T) {
	inst := New(testConfig(t), &stubProvisioner{})
	_, err := inst.InstallLocal(context.Background(), Options{Name: "echo", SourceDir: filepath.Join(t.TempDir(), "nope")})
	var missing *SourceNotFoundError
	assert.True(t, errors.As(err, &missing))
}

func TestInstallLocal_DuplicateWithoutForce(t *testing.T) {
	cfg := testConfig(t)
	inst := New(cfg, &stubProvisioner{})
	source := flatSource(t)

	_, err := inst.InstallLocal(context.Background(), Options{Name: "echo", SourceDir: source})
	require.NoError(t, err)

	_, err = inst.InstallLocal(context.Background(), Options{Name: "echo", SourceDir: source})
	var exists *ServerAlreadyExistsError
	require.True(t, errors.As(err, &exists))
	assert.Equal(t, "echo", exists.Name)
}

func TestInstallLocal_ForceRemovesOldTree(t *testing.T) {
	cfg := testConfig(t)
	inst := New(cfg, &stubProvisioner{})

	_, err := inst.InstallLocal(context.Background(), Options{Name: "echo", SourceDir: flatSource(t)})
	require.NoError(t, err)

	// Plant a stale file in the old install; the forced reinstall must not
	// leave it behind.
	stale := filepath.Join(cfg.SourceDir("echo"), "stale.py")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	_, err = inst.InstallLocal(context.Background(), Options{Name: "echo", SourceDir: flatSource(t), Force: true})
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(cfg.SourceDir("echo"), "main.py"))
}

func TestInstallLocal_VenvFailureLeavesNoPartialState(t *testing.T) {
	cfg := testConfig(t)
	prov := &stubProvisioner{createErr: errors.New("venv exploded")}
	inst := New(cfg, prov)

	_, err := inst.InstallLocal(context.Background(), Options{Name: "echo", SourceDir: flatSource(t)})
	require.Error(t, err)

	// Neither a registry entry nor staged files may remain.
	reg, err := registry.Load(cfg.RegistryPath)
	require.NoError(t, err)
	assert.False(t, reg.Has("echo"))
	assert.NoDirExists(t, cfg.ServerDir("echo"))
}

func TestInstallLocal_DependencyFailureIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	prov := &stubProvisioner{installErr: errors.New("pip exploded")}
	inst := New(cfg, prov)

	server, err := inst.InstallLocal(context.Background(), Options{Name: "weather", SourceDir: nestedSource(t)})
	require.NoError(t, err)
	assert.Equal(t, "weather", server.Name)

	reg, err := registry.Load(cfg.RegistryPath)
	require.NoError(t, err)
	assert.True(t, reg.Has("weather"))
}
