package config

import (
	"os"
	"path/filepath"
)

// configFileName is the env-style configuration file.
const configFileName = "photoframe.env"

// Dir returns the application root: the directory holding the
// configuration file, image database, and logs. Overridable with
// PHOTOFRAME_CONFIG_DIR.
func Dir() string {
	if envDir := os.Getenv("PHOTOFRAME_CONFIG_DIR"); envDir != "" {
		return envDir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "photoframe")
}

// FilePath returns the path of the configuration file.
func FilePath() string {
	return filepath.Join(Dir(), configFileName)
}

// DefaultImageDir returns where images are stored when IMAGE_DIR is unset.
func DefaultImageDir() string {
	return filepath.Join(Dir(), "images")
}

// LogPath returns the fetch job's execution log. The native scheduler
// redirects the job's standard streams here, and status tails it.
func LogPath() string {
	return filepath.Join(Dir(), "logs", "photoframe.log")
}

// DatabasePath returns the image database location.
func DatabasePath() string {
	return filepath.Join(Dir(), "photoframe.db")
}
