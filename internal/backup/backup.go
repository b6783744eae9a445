package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"mcpctl/internal/fsutil"
	"mcpctl/pkg/logging"
)

// ConfigType identifies which tracked configuration file a backup belongs to.
type ConfigType string

const (
	// ConfigTypeRegistry is the mcpctl server registry.
	ConfigTypeRegistry ConfigType = "registry"
	// ConfigTypeCline is the Cline editor MCP settings file.
	ConfigTypeCline ConfigType = "cline"
	// ConfigTypeClaude is the Claude desktop configuration file.
	ConfigTypeClaude ConfigType = "claude"
)

// AllConfigTypes lists every known config type, in sweep order.
var AllConfigTypes = []ConfigType{ConfigTypeRegistry, ConfigTypeCline, ConfigTypeClaude}

// configTypeStems maps a config type to the filename stem its backups carry.
var configTypeStems = map[ConfigType]string{
	ConfigTypeRegistry: "registry",
	ConfigTypeCline:    "cline_mcp_settings",
	ConfigTypeClaude:   "claude_desktop_config",
}

// timestampLayout is the second-resolution encoding used in backup names.
const timestampLayout = "20060102_150405"

// DefaultPrefix is the prefix used when the caller does not supply one.
const DefaultPrefix = "backup"

// PreRestorePrefix marks the safety backup taken of a restore target.
const PreRestorePrefix = "pre-restore"

// BackupInfo describes one backup file on disk.
type BackupInfo struct {
	// Path is the backup file location.
	Path string
	// ConfigType is the tracked config the backup belongs to.
	ConfigType ConfigType
	// Timestamp is parsed from the filename.
	Timestamp time.Time
}

// Manager creates, lists, restores and prunes timestamped snapshots of
// tracked configuration files. Backups are plain byte-for-byte copies named
// {stem}.{prefix}.{YYYYMMDD_HHMMSS}{suffix}; they are never mutated after
// creation.
type Manager struct {
	backupDir string
}

// NewManager returns a Manager storing backups under backupDir.
func NewManager(backupDir string) *Manager {
	return &Manager{backupDir: backupDir}
}

// CreateBackup copies configFile into the backup directory under a
// timestamp-encoded name and returns the new path. An empty prefix means
// DefaultPrefix. Timestamps have second resolution; if two backups of the
// same file land in the same second, a numeric counter is appended so an
// existing backup is never overwritten.
func (m *Manager) CreateBackup(configFile, prefix string) (string, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if _, err := os.Stat(configFile); err != nil {
		if os.IsNotExist(err) {
			return "", &FileNotFoundError{Path: configFile}
		}
		return "", fmt.Errorf("failed to stat %s: %w", configFile, err)
	}
	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory %s: %w", m.backupDir, err)
	}

	base := filepath.Base(configFile)
	suffix := filepath.Ext(base)
	stem := strings.TrimSuffix(base, suffix)
	timestamp := time.Now().Format(timestampLayout)

	backupPath := filepath.Join(m.backupDir, fmt.Sprintf("%s.%s.%s%s", stem, prefix, timestamp, suffix))
	for counter := 1; ; counter++ {
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			break
		}
		backupPath = filepath.Join(m.backupDir,
			fmt.Sprintf("%s.%s.%s-%d%s", stem, prefix, timestamp, counter, suffix))
	}

	if err := fsutil.CopyFile(configFile, backupPath); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", configFile, err)
	}

	logging.Info("Backup", "Created backup %s of %s", backupPath, configFile)
	return backupPath, nil
}

// List returns backups of the given config type, newest first. A limit of
// zero or less means no limit; a positive limit truncates after sorting.
func (m *Manager) List(configType ConfigType, limit int) ([]BackupInfo, error) {
	stem, ok := configTypeStems[configType]
	if !ok {
		return nil, fmt.Errorf("unknown config type %q", configType)
	}

	matches, err := filepath.Glob(filepath.Join(m.backupDir, stem+".*.*"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob backups for %s: %w", configType, err)
	}

	type entry struct {
		info    BackupInfo
		counter int
	}
	var entries []entry
	for _, path := range matches {
		timestamp, counter, ok := parseTimestamp(filepath.Base(path), stem)
		if !ok {
			continue
		}
		entries = append(entries, entry{
			info:    BackupInfo{Path: path, ConfigType: configType, Timestamp: timestamp},
			counter: counter,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].info.Timestamp.Equal(entries[j].info.Timestamp) {
			// Same-second collisions: a higher counter was created later.
			return entries[i].counter > entries[j].counter
		}
		return entries[i].info.Timestamp.After(entries[j].info.Timestamp)
	})

	backups := make([]BackupInfo, 0, len(entries))
	for _, e := range entries {
		backups = append(backups, e.info)
	}
	if limit > 0 && len(backups) > limit {
		backups = backups[:limit]
	}
	return backups, nil
}

// Restore copies backupFile over targetFile. The backup must parse as JSON
// before the target is touched; when backupTarget is true the current
// target content is first backed up with the pre-restore prefix, so a
// restore is itself always recoverable.
func (m *Manager) Restore(backupFile, targetFile string, backupTarget bool) error {
	data, err := os.ReadFile(backupFile)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileNotFoundError{Path: backupFile}
		}
		return fmt.Errorf("failed to read backup %s: %w", backupFile, err)
	}
	if !json.Valid(data) {
		return &CorruptBackupError{Path: backupFile}
	}

	if backupTarget {
		if _, err := os.Stat(targetFile); err == nil {
			if _, err := m.CreateBackup(targetFile, PreRestorePrefix); err != nil {
				return fmt.Errorf("failed to back up restore target %s: %w", targetFile, err)
			}
		}
	}

	if err := fsutil.AtomicWriteFile(targetFile, data, 0644); err != nil {
		return fmt.Errorf("failed to restore %s to %s: %w", backupFile, targetFile, err)
	}

	logging.Info("Backup", "Restored %s from %s", targetFile, backupFile)
	return nil
}

// PruneOld keeps the keepCount newest backups per config type and deletes
// the rest. keepCount must not be negative; an empty configType sweeps
// every known type. Deletion failures for individual files are logged and
// swallowed; the sweep continues. Returns the number of backups actually
// removed.
func (m *Manager) PruneOld(configType ConfigType, keepCount int) (int, error) {
	if keepCount < 0 {
		return 0, fmt.Errorf("keep count must not be negative, got %d", keepCount)
	}
	types := AllConfigTypes
	if configType != "" {
		types = []ConfigType{configType}
	}

	removed := 0
	for _, ct := range types {
		backups, err := m.List(ct, 0)
		if err != nil {
			return removed, err
		}
		if len(backups) <= keepCount {
			continue
		}
		for _, old := range backups[keepCount:] {
			if err := os.Remove(old.Path); err != nil {
				logging.Warn("Backup", "Failed to remove old backup %s: %v", old.Path, err)
				continue
			}
			logging.Debug("Backup", "Removed old backup %s", old.Path)
			removed++
		}
	}
	return removed, nil
}

// TotalSizeMB sums the size of all files in the backup directory, in
// megabytes rounded to 2 decimals. Unreadable files are skipped silently.
func (m *Manager) TotalSizeMB() float64 {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return 0
	}
	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return fsutil.RoundMB(total)
}

// parseTimestamp extracts the encoded timestamp and same-second collision
// counter from a backup filename of the form
// {stem}.{prefix}.{timestamp}[-counter]{suffix}. A backup without a counter
// reports counter 0.
func parseTimestamp(base, stem string) (time.Time, int, bool) {
	rest := strings.TrimPrefix(base, stem+".")
	if rest == base {
		return time.Time{}, 0, false
	}
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return time.Time{}, 0, false
	}

	// The timestamp has a fixed width, so parse by position rather than by
	// trimming an extension: the tracked file may have no extension at all.
	encoded := rest[dot+1:]
	if len(encoded) < len(timestampLayout) {
		return time.Time{}, 0, false
	}
	timestamp, err := time.ParseInLocation(timestampLayout, encoded[:len(timestampLayout)], time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}

	counter := 0
	tail := encoded[len(timestampLayout):]
	switch {
	case tail == "":
	case tail[0] == '.':
		// Just the original file's extension.
	case tail[0] == '-':
		digits := strings.TrimSuffix(tail[1:], filepath.Ext(tail[1:]))
		counter, err = strconv.Atoi(digits)
		if err != nil {
			return time.Time{}, 0, false
		}
	default:
		return time.Time{}, 0, false
	}
	return timestamp, counter, true
}
