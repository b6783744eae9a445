package cleanup

import (
	"os"
	"path/filepath"
	"testing"

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

// installFixture lays down the artifact tree of an installed local server.
func installFixture(t *testing.T, cfg config.Config, name string) registry.Server {
	t.Helper()
	require.NoError(t, os.MkdirAll(cfg.SourceDir(name), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SourceDir(name), "main.py"), []byte("print()"), 0644))
	require.NoError(t, os.MkdirAll(cfg.VenvDir(name), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.VenvDir(name), "pyvenv.cfg"), []byte("home = /usr"), 0644))
	require.NoError(t, os.MkdirAll(cfg.LogsDir, 0755))
	require.NoError(t, os.WriteFile(cfg.LogFile(name), []byte("log line\n"), 0644))

	return registry.NewLocalServer(name, registry.LocalConfig{
		SourceDir: cfg.SourceDir(name),
		VenvDir:   cfg.VenvDir(name),
	})
}

func TestCleanupServerFiles_RemovesAllArtifacts(t *testing.T) {
	cfg := testConfig(t)
	server := installFixture(t, cfg, "echo")

	m := NewManager(cfg)
	result := m.CleanupServerFiles(server, false)

	assert.True(t, result.Success())
	assert.NotEmpty(t, result.Removed)
	assert.Empty(t, result.Failed)
	assert.NoDirExists(t, cfg.ServerDir("echo"))
	assert.NoFileExists(t, cfg.LogFile("echo"))
}

func TestCleanupServerFiles_DryRunTouchesNothing(t *testing.T) {
	cfg := testConfig(t)
	server := installFixture(t, cfg, "echo")

	m := NewManager(cfg)
	result := m.CleanupServerFiles(server, true)

	assert.True(t, result.Success())
	assert.Empty(t, result.Removed)
	assert.NotEmpty(t, result.WouldRemove)
	assert.DirExists(t, cfg.ServerDir("echo"))
	assert.FileExists(t, cfg.LogFile("echo"))
}

func TestCleanupServerFiles_Idempotent(t *testing.T) {
	cfg := testConfig(t)
	server := installFixture(t, cfg, "echo")

	m := NewManager(cfg)
	first := m.CleanupServerFiles(server, false)
	require.True(t, first.Success())
	require.NotEmpty(t, first.Removed)

	// Nothing is left, so a second sweep removes nothing and still succeeds.
	second := m.CleanupServerFiles(server, false)
	assert.True(t, second.Success())
	assert.Empty(t, second.Removed)
	assert.Empty(t, second.Failed)
}

func TestCleanupServerFiles_UserSourceDirSpared(t *testing.T) {
	cfg := testConfig(t)
	userSource := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(userSource, "main.py"), []byte("print()"), 0644))

	server := registry.NewLocalServer("echo", registry.LocalConfig{
		SourceDir: userSource, // outside the managed root
		VenvDir:   cfg.VenvDir("echo"),
	})
	require.NoError(t, os.MkdirAll(cfg.VenvDir("echo"), 0755))

	m := NewManager(cfg)
	result := m.CleanupServerFiles(server, false)

	assert.True(t, result.Success())
	assert.DirExists(t, userSource, "source tree outside the managed root must never be deleted")
	assert.FileExists(t, filepath.Join(userSource, "main.py"))
}

func TestCleanupServerFiles_RemoteServerHasNoArtifacts(t *testing.T) {
	cfg := testConfig(t)
	server, err := registry.NewRemoteServer("jira", "https://jira.example.com", "")
	require.NoError(t, err)

	m := NewManager(cfg)
	result := m.CleanupServerFiles(server, false)
	assert.True(t, result.Success())
	assert.Empty(t, result.Removed)
	assert.Empty(t, result.WouldRemove)
}

func TestRemoveServerArtifacts(t *testing.T) {
	cfg := testConfig(t)
	installFixture(t, cfg, "echo")

	m := NewManager(cfg)
	result := m.RemoveServerArtifacts("echo")

	assert.True(t, result.Success())
	assert.NoDirExists(t, cfg.ServerDir("echo"))
	assert.NoFileExists(t, cfg.LogFile("echo"))

	// Re-running is safe: everything is already gone.
	again := m.RemoveServerArtifacts("echo")
	assert.True(t, again.Success())
	assert.Empty(t, again.Removed)
}

func TestFindUnusedFiles_OrphanedServerDir(t *testing.T) {
	cfg := testConfig(t)
	installFixture(t, cfg, "ghost")
	installFixture(t, cfg, "echo")
	// Reserved directories are never orphans.
	require.NoError(t, os.MkdirAll(cfg.BackupDir, 0755))

	m := NewManager(cfg)
	known := map[string]struct{}{"echo": {}}
	orphans := m.FindUnusedFiles(known)

	var paths []string
	for _, o := range orphans {
		paths = append(paths, o.Path)
		assert.True(t, o.Exists)
	}
	assert.Contains(t, paths, cfg.ServerDir("ghost"))
	assert.Contains(t, paths, cfg.LogFile("ghost"))
	assert.NotContains(t, paths, cfg.ServerDir("echo"))
	assert.NotContains(t, paths, cfg.BackupDir)
}

func TestFindUnusedFiles_DeletedDirIsNotOrphaned(t *testing.T) {
	cfg := testConfig(t)
	server := installFixture(t, cfg, "echo")

	// Manually delete the managed tree while the registry entry survives:
	// nothing is on disk, so nothing can be orphaned.
	require.NoError(t, os.RemoveAll(cfg.ServerDir("echo")))
	require.NoError(t, os.Remove(cfg.LogFile("echo")))

	m := NewManager(cfg)
	orphans := m.FindUnusedFiles(map[string]struct{}{server.Name: {}})
	assert.Empty(t, orphans)

	// The inverse: drop the registry entry while the directory remains, and
	// the directory shows up as an orphaned server.
	installFixture(t, cfg, "echo")
	orphans = m.FindUnusedFiles(map[string]struct{}{})
	require.NotEmpty(t, orphans)
	assert.Equal(t, CategoryOrphanedServer, orphans[0].Category)
	assert.Equal(t, cfg.ServerDir("echo"), orphans[0].Path)
}

func TestServerFiles_Enumeration(t *testing.T) {
	cfg := testConfig(t)
	server := installFixture(t, cfg, "echo")

	m := NewManager(cfg)
	files := m.ServerFiles(server)

	categories := make(map[Category]FileInfo)
	for _, f := range files {
		categories[f.Category] = f
	}
	assert.True(t, categories[CategoryVenv].Exists)
	assert.True(t, categories[CategorySource].Exists)
	assert.True(t, categories[CategoryLog].Exists)
	assert.True(t, categories[CategoryServerDir].Exists)
}
