package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mcpctl/internal/config"
	"mcpctl/internal/fsutil"
	"mcpctl/internal/registry"
	"mcpctl/pkg/logging"
)

// Category classifies a filesystem artifact belonging to (or orphaned by)
// a server.
type Category string

const (
	CategoryVenv           Category = "venv"
	CategorySource         Category = "source"
	CategoryLog            Category = "log"
	CategoryConfig         Category = "config"
	CategoryServerDir      Category = "server_dir"
	CategoryOrphanedServer Category = "orphaned_server"
	CategoryOrphanedLog    Category = "orphaned_log"
)

// FileInfo describes one artifact on disk. Computed on demand, never
// persisted.
type FileInfo struct {
	Path     string
	Category Category
	Exists   bool
	SizeMB   float64
}

// RemovedItem records one artifact removed (or slated for removal in a dry
// run) together with its size.
type RemovedItem struct {
	Path   string
	SizeMB float64
}

// FailedItem records one artifact that could not be removed.
type FailedItem struct {
	Path string
	Err  error
}

// Result accumulates per-artifact outcomes of a cleanup sweep. Individual
// failures never abort the sweep; callers inspect Failed rather than
// catching an error.
type Result struct {
	Removed     []RemovedItem
	WouldRemove []RemovedItem
	Failed      []FailedItem
	TotalSizeMB float64
}

// Success reports whether no artifact failed to remove.
func (r *Result) Success() bool {
	return len(r.Failed) == 0
}

// Manager computes and executes removal of the filesystem artifacts
// belonging to a server, and detects orphaned artifacts not owned by any
// known server. All removal is restricted to the managed root; paths the
// user pointed at directly are never touched.
type Manager struct {
	cfg config.Config
}

// NewManager returns a Manager operating under the given configuration.
func NewManager(cfg config.Config) *Manager {
	return &Manager{cfg: cfg}
}

// ServerFiles enumerates the canonical artifact set for a server. Remote
// servers own no filesystem artifacts and yield an empty set.
func (m *Manager) ServerFiles(server registry.Server) []FileInfo {
	local, ok := server.AsLocal()
	if !ok {
		return nil
	}

	var files []FileInfo
	add := func(path string, category Category, isDir bool) {
		if path == "" {
			return
		}
		info := FileInfo{Path: path, Category: category}
		if _, err := os.Stat(path); err == nil {
			info.Exists = true
			if isDir {
				info.SizeMB = fsutil.DirSizeMB(path)
			} else {
				info.SizeMB = fsutil.FileSizeMB(path)
			}
		}
		files = append(files, info)
	}

	add(local.VenvDir, CategoryVenv, true)
	// The source dir is only removable when it lives under the managed root;
	// a path outside it is a user-owned source tree.
	if fsutil.IsSubpath(m.cfg.ManagedRoot, local.SourceDir) {
		add(local.SourceDir, CategorySource, true)
	}
	add(m.cfg.LogFile(server.Name), CategoryLog, false)
	if local.ConfigFile != "" && fsutil.IsSubpath(m.cfg.ManagedRoot, local.ConfigFile) {
		add(local.ConfigFile, CategoryConfig, false)
	}
	// The per-server directory goes last so its contents are accounted for
	// individually first.
	add(m.cfg.ServerDir(server.Name), CategoryServerDir, true)

	return files
}

// CleanupServerFiles removes every existing artifact belonging to server.
// In a dry run the artifacts are recorded as would-remove without touching
// the filesystem. Removal continues past individual failures so one locked
// file does not abort the whole cleanup.
func (m *Manager) CleanupServerFiles(server registry.Server, dryRun bool) *Result {
	result := &Result{}

	for _, file := range m.ServerFiles(server) {
		if !file.Exists {
			continue
		}
		size := file.SizeMB
		if file.Category == CategoryServerDir {
			// The other artifacts live inside this directory and were already
			// counted; only whatever remains at removal time is new.
			size = 0
			if !dryRun {
				size = fsutil.DirSizeMB(file.Path)
			}
		}
		if dryRun {
			result.WouldRemove = append(result.WouldRemove, RemovedItem{Path: file.Path, SizeMB: size})
			result.TotalSizeMB += size
			continue
		}
		if err := removePath(file.Path); err != nil {
			logging.Warn("Cleanup", "Failed to remove %s: %v", file.Path, err)
			result.Failed = append(result.Failed, FailedItem{Path: file.Path, Err: err})
			continue
		}
		logging.Debug("Cleanup", "Removed %s (%s)", file.Path, file.Category)
		result.Removed = append(result.Removed, RemovedItem{Path: file.Path, SizeMB: size})
		result.TotalSizeMB += size
	}

	return result
}

// RemoveServerArtifacts removes the managed directory tree and log file for
// a server name, without requiring a registry record. This is the
// safe-remove primitive the installer's force path delegates to.
func (m *Manager) RemoveServerArtifacts(name string) *Result {
	result := &Result{}

	for _, path := range []string{m.cfg.ServerDir(name), m.cfg.LogFile(name)} {
		if !fsutil.IsSubpath(m.cfg.ManagedRoot, path) && !fsutil.IsSubpath(m.cfg.LogsDir, path) {
			result.Failed = append(result.Failed, FailedItem{
				Path: path,
				Err:  fmt.Errorf("path %s is outside the managed root %s", path, m.cfg.ManagedRoot),
			})
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue // already gone
		}
		size := fsutil.FileSizeMB(path)
		if info.IsDir() {
			size = fsutil.DirSizeMB(path)
		}
		if err := removePath(path); err != nil {
			logging.Warn("Cleanup", "Failed to remove %s: %v", path, err)
			result.Failed = append(result.Failed, FailedItem{Path: path, Err: err})
			continue
		}
		result.Removed = append(result.Removed, RemovedItem{Path: path, SizeMB: size})
		result.TotalSizeMB += size
	}

	return result
}

// FindUnusedFiles scans the managed root for server directories whose name
// is not in known, and the logs directory for log files whose stem is not
// in known. A directory that is simply gone is not orphaned; only artifacts
// present on disk without a registry owner are reported.
func (m *Manager) FindUnusedFiles(known map[string]struct{}) []FileInfo {
	var orphans []FileInfo

	entries, err := os.ReadDir(m.cfg.ManagedRoot)
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			name := entry.Name()
			if m.isReservedDir(name) {
				continue
			}
			if _, owned := known[name]; owned {
				continue
			}
			path := filepath.Join(m.cfg.ManagedRoot, name)
			orphans = append(orphans, FileInfo{
				Path:     path,
				Category: CategoryOrphanedServer,
				Exists:   true,
				SizeMB:   fsutil.DirSizeMB(path),
			})
		}
	}

	logEntries, err := os.ReadDir(m.cfg.LogsDir)
	if err == nil {
		for _, entry := range logEntries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
				continue
			}
			stem := strings.TrimSuffix(entry.Name(), ".log")
			if _, owned := known[stem]; owned {
				continue
			}
			path := filepath.Join(m.cfg.LogsDir, entry.Name())
			orphans = append(orphans, FileInfo{
				Path:     path,
				Category: CategoryOrphanedLog,
				Exists:   true,
				SizeMB:   fsutil.FileSizeMB(path),
			})
		}
	}

	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Path < orphans[j].Path })
	return orphans
}

// isReservedDir reports whether a directory under the managed root belongs
// to mcpctl itself rather than to a server.
func (m *Manager) isReservedDir(name string) bool {
	path := filepath.Join(m.cfg.ManagedRoot, name)
	return path == filepath.Clean(m.cfg.BackupDir) || path == filepath.Clean(m.cfg.LogsDir)
}

func removePath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}
