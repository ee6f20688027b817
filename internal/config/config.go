// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads and creates the biblio-engine configuration file.
// Implements: prd003-configuration (R1-R4);
//
//	docs/ARCHITECTURE § Configuration.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/pdiddy/biblio-engine/pkg/types"
)

// Defaults applied when the configuration file omits a setting.
const (
	DefaultTimeout          = 20 * time.Second
	DefaultRetries          = 5
	DefaultMaxSearchEntries = 5000
	DefaultUserAgent        = "biblio-engine/0.1"
	DefaultLogLevel         = "info"
)

// FileName is the configuration file base name, searched as
// FileName.yaml in the working directory and the XDG config directory.
const FileName = "biblio-engine"

// DefaultCacheDir returns the XDG cache directory for responses.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "biblio-engine")
}

// DefaultConfigDir returns the XDG directory for the config file.
func DefaultConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "biblio-engine")
}

// DefaultConfigFile returns the full path of the default config file.
func DefaultConfigFile() string {
	return filepath.Join(DefaultConfigDir(), FileName+".yaml")
}

// DefaultJournalPath returns the XDG data path for the request journal
// database.
func DefaultJournalPath() string {
	return filepath.Join(xdg.DataHome, "biblio-engine", "requests.db")
}

// SetDefaults registers every default on v so a partial or missing config
// file still yields a usable Config.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cache.base_dir", DefaultCacheDir())
	v.SetDefault("requests.timeout", DefaultTimeout)
	v.SetDefault("requests.retries", DefaultRetries)
	v.SetDefault("requests.max_search_entries", DefaultMaxSearchEntries)
	v.SetDefault("requests.user_agent", DefaultUserAgent)
	v.SetDefault("requests.throttle", true)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", DefaultJournalPath())
}

// Load unmarshals the viper state into a validated Config. Durations may
// be written as strings ("20s") and key lists as comma-separated strings,
// which is what environment variable overrides produce.
func Load(v *viper.Viper) (types.Config, error) {
	SetDefaults(v)

	var cfg types.Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return types.Config{}, fmt.Errorf("parsing configuration: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func Validate(cfg types.Config) error {
	if cfg.Cache.BaseDir == "" {
		return fmt.Errorf("cache.base_dir must not be empty")
	}
	if cfg.Requests.Timeout <= 0 {
		return fmt.Errorf("requests.timeout must be positive, got %v", cfg.Requests.Timeout)
	}
	if cfg.Requests.Retries < 0 {
		return fmt.Errorf("requests.retries must not be negative, got %d", cfg.Requests.Retries)
	}
	if cfg.Requests.MaxSearchEntries <= 0 {
		return fmt.Errorf("requests.max_search_entries must be positive, got %d", cfg.Requests.MaxSearchEntries)
	}
	if cfg.Journal.Enabled && cfg.Journal.Path == "" {
		return fmt.Errorf("journal.path must be set when journaling is enabled")
	}
	return nil
}
