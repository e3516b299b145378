package config

import (
	"path/filepath"
)

var (
	// AppName is used in generating file system paths.
	AppName = "gnexport"
)

// ConfigDir returns the directory path for configuration files.
// Returns ~/.config/gnexport by default.
func ConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", AppName)
}

// CacheDir returns the directory path for cache files.
// Returns ~/.cache/gnexport by default.
func CacheDir(homeDir string) string {
	return filepath.Join(homeDir, ".cache", AppName)
}

// LogDir returns the directory path for log files.
// Returns ~/.local/share/gnexport/logs by default.
func LogDir(homeDir string) string {
	return filepath.Join(homeDir, ".local", "share", AppName, "logs")
}

// ConfigFilePath returns the full path to the config.yaml file.
// Returns ~/.config/gnexport/config.yaml by default.
func ConfigFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "config.yaml")
}

// FieldsFilePath returns the full path to the fields.yaml file with the
// catalogue of exportable fields.
// Returns ~/.config/gnexport/fields.yaml by default.
func FieldsFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "fields.yaml")
}

// LocalIndexPath returns the default location of a local SQLite index.
// Returns ~/.cache/gnexport/occurrences.sqlite by default.
func LocalIndexPath(homeDir string) string {
	return filepath.Join(CacheDir(homeDir), "occurrences.sqlite")
}
