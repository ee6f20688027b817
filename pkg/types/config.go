package types

import "time"

// CacheConfig controls where cached responses live on disk.
// Per prd001-cache-engine R1.2, R1.3.
type CacheConfig struct {
	// BaseDir is the root directory for cached responses. Each API gets a
	// subdirectory below it (e.g. Scopus/abstract_retrieval/FULL).
	BaseDir string `yaml:"base_dir" mapstructure:"base_dir"`

	// Overrides maps an API name to a custom cache directory, replacing
	// the default location under BaseDir for that API only.
	Overrides map[string]string `yaml:"overrides,omitempty" mapstructure:"overrides"`
}

// AuthConfig holds the credentials sent with every request.
// Per prd002-transport R2.1-R2.3.
type AuthConfig struct {
	// APIKeys lists one or more API keys. The transport rotates to the
	// next key when the current one runs out of quota.
	APIKeys []string `yaml:"api_keys" mapstructure:"api_keys"`

	// InstToken is an optional institutional token sent alongside the key.
	InstToken string `yaml:"inst_token,omitempty" mapstructure:"inst_token"`
}

// RequestsConfig holds network request policy.
// Per prd002-transport R3.1-R3.5.
type RequestsConfig struct {
	// Timeout is the HTTP request timeout (default 20s).
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Retries is the number of retry attempts on HTTP 429 after all keys
	// are exhausted (default 5).
	Retries int `yaml:"retries" mapstructure:"retries"`

	// MaxSearchEntries caps the reported result count of an offset-paginated
	// search before any follow-up pages are requested (default 5000).
	MaxSearchEntries int `yaml:"max_search_entries" mapstructure:"max_search_entries"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "biblio-engine/0.1").
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Throttle enables client-side per-API rate limiting.
	Throttle bool `yaml:"throttle" mapstructure:"throttle"`
}

// LoggingConfig controls the diagnostic log output.
type LoggingConfig struct {
	// Level is the logrus level name: debug, info, warn, error (default info).
	Level string `yaml:"level" mapstructure:"level"`

	// File is an optional log file path. Empty means stderr only.
	File string `yaml:"file,omitempty" mapstructure:"file"`

	// MaxSizeMB is the rotation threshold for the log file (default 10).
	MaxSizeMB int `yaml:"max_size_mb" mapstructure:"max_size_mb"`

	// MaxBackups is the number of rotated log files to keep (default 3).
	MaxBackups int `yaml:"max_backups" mapstructure:"max_backups"`
}

// JournalConfig controls the SQLite request journal.
// Per prd005-quota-journal R1.1.
type JournalConfig struct {
	// Enabled turns journaling of completed network requests on or off.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Path is the journal database file. Empty selects the default under
	// the user cache directory.
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// Config groups all sections of the configuration file.
type Config struct {
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Auth     AuthConfig     `yaml:"authentication" mapstructure:"authentication"`
	Requests RequestsConfig `yaml:"requests" mapstructure:"requests"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Journal  JournalConfig  `yaml:"journal" mapstructure:"journal"`
}
