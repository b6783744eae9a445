package config

// Config is the top-level configuration structure for mcpctl.
type Config struct {
	// ManagedRoot is the single directory tree mcpctl owns. All per-server
	// source and runtime directories live under it; cleanup refuses to touch
	// anything outside it.
	ManagedRoot string `yaml:"managedRoot,omitempty"`

	// RegistryPath is the location of the JSON server registry.
	RegistryPath string `yaml:"registryPath,omitempty"`

	// BackupDir is the shared directory holding timestamped config backups.
	BackupDir string `yaml:"backupDir,omitempty"`

	// LogsDir is where per-server log files are written.
	LogsDir string `yaml:"logsDir,omitempty"`

	// BackupKeepCount is the default retention count for backup pruning.
	BackupKeepCount int `yaml:"backupKeepCount,omitempty"`

	// EditorConfigs are the external editor configuration files the
	// reconciler reads. mcpctl never writes these.
	EditorConfigs []EditorConfig `yaml:"editorConfigs,omitempty"`
}

// EditorConfig identifies one external editor configuration file.
type EditorConfig struct {
	// Name is the short config type identifier (e.g. "cline", "claude").
	Name string `yaml:"name"`
	// Path is the absolute path of the JSON file.
	Path string `yaml:"path"`
}
