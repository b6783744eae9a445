package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mcpctl/pkg/logging"
)

const (
	userConfigDir  = ".config/mcpctl"
	configFileName = "config.yaml"
)

// osUserHomeDir is a variable so tests can substitute the home directory.
var osUserHomeDir = os.UserHomeDir

// DefaultConfig returns the built-in configuration, with every path rooted
// under the user's home directory.
func DefaultConfig() (Config, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("failed to determine home directory: %w", err)
	}

	root := filepath.Join(home, ".mcp-servers")
	return Config{
		ManagedRoot:     root,
		RegistryPath:    filepath.Join(root, "registry.json"),
		BackupDir:       filepath.Join(root, "backups"),
		LogsDir:         filepath.Join(root, "logs"),
		BackupKeepCount: 10,
		EditorConfigs: []EditorConfig{
			{
				Name: "cline",
				Path: filepath.Join(home, ".config", "Code", "User", "globalStorage",
					"saoudrizwan.claude-dev", "settings", "cline_mcp_settings.json"),
			},
			{
				Name: "claude",
				Path: filepath.Join(home, ".config", "Claude", "claude_desktop_config.json"),
			},
		},
	}, nil
}

// Load returns the effective configuration: built-in defaults overlaid with
// the user's ~/.config/mcpctl/config.yaml if it exists. A missing user
// config file is not an error; an unparseable one is.
func Load() (Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	home, err := osUserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("failed to determine home directory: %w", err)
	}
	path := filepath.Join(home, userConfigDir, configFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug("Config", "No user config at %s, using defaults", path)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var user Config
	if err := yaml.Unmarshal(data, &user); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	merge(&cfg, user)

	logging.Debug("Config", "Loaded user config from %s", path)
	return cfg, nil
}

// merge overlays non-zero fields of user onto base.
func merge(base *Config, user Config) {
	if user.ManagedRoot != "" {
		base.ManagedRoot = user.ManagedRoot
	}
	if user.RegistryPath != "" {
		base.RegistryPath = user.RegistryPath
	}
	if user.BackupDir != "" {
		base.BackupDir = user.BackupDir
	}
	if user.LogsDir != "" {
		base.LogsDir = user.LogsDir
	}
	if user.BackupKeepCount > 0 {
		base.BackupKeepCount = user.BackupKeepCount
	}
	if len(user.EditorConfigs) > 0 {
		base.EditorConfigs = user.EditorConfigs
	}
}

// ServerDir returns the managed directory for a named server.
func (c Config) ServerDir(name string) string {
	return filepath.Join(c.ManagedRoot, name)
}

// SourceDir returns the staged source directory for a named server.
func (c Config) SourceDir(name string) string {
	return filepath.Join(c.ManagedRoot, name, "src")
}

// VenvDir returns the isolated runtime directory for a named server.
func (c Config) VenvDir(name string) string {
	return filepath.Join(c.ManagedRoot, name, ".venv")
}

// LogFile returns the log file path for a named server.
func (c Config) LogFile(name string) string {
	return filepath.Join(c.LogsDir, name+".log")
}
