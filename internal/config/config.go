// Package config loads and persists the env-style key/value configuration
// file shared with the user (API credentials, tag, storage limits, fetch
// interval).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
)

// ErrNotFound indicates no configuration file exists yet. Callers recover
// by writing the template and instructing the user rather than failing.
var ErrNotFound = errors.New("configuration file not found")

// Config is the typed view of the configuration file. Collaborator-owned
// keys not listed here are preserved verbatim when the file is rewritten.
type Config struct {
	// BaseURL is the Discourse instance to pull images from.
	BaseURL string

	// APIKey and APIUsername authenticate Discourse API requests.
	APIKey      string
	APIUsername string

	// Tag selects the discussion topics whose images are collected.
	Tag string

	// FetchInterval is the schedule period in minutes.
	FetchInterval int

	// ImageLimit bounds the local collection size.
	ImageLimit int

	// ImageDir is where downloaded images are stored.
	ImageDir string

	// BatchSize is how many topics are processed per chunk.
	BatchSize int

	// LogLevel is the slog level name for application logging.
	LogLevel string
}

// Load reads the configuration file, applying defaults for missing or
// invalid values. Environment variables prefixed PHOTOFRAME_ override file
// values. A missing file is reported as ErrNotFound.
func Load() (*Config, error) {
	path := FilePath()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat config file %s; %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	v.SetEnvPrefix("PHOTOFRAME")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s; %w", path, err)
	}

	cfg := &Config{
		BaseURL:       v.GetString("discourse_base_url"),
		APIKey:        v.GetString("discourse_api_key"),
		APIUsername:   v.GetString("discourse_api_username"),
		Tag:           v.GetString("discourse_tag"),
		FetchInterval: v.GetInt("fetch_interval"),
		ImageLimit:    v.GetInt("image_limit"),
		ImageDir:      v.GetString("image_dir"),
		BatchSize:     v.GetInt("batch_size"),
		LogLevel:      v.GetString("log_level"),
	}

	// Non-numeric or non-positive intervals fall back to the default
	// rather than failing.
	if cfg.FetchInterval <= 0 {
		slog.Warn("invalid fetch interval configured, using default",
			"configured", v.GetString("fetch_interval"), "default", DefaultFetchInterval)
		cfg.FetchInterval = DefaultFetchInterval
	}
	if cfg.ImageLimit <= 0 {
		cfg.ImageLimit = DefaultImageLimit
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.ImageDir == "" {
		cfg.ImageDir = DefaultImageDir()
	}

	return cfg, nil
}

// Exists reports whether a configuration file is present.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}
