// Package config defines core configuration types for tethls.
// These types are pure data structures; discovery and merging live in
// internal/configloader.
package config

import "time"

// OutputFormat specifies the output format for diagnostics.
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
)

// IsValid returns true if the format is known.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatText, FormatTable, FormatJSON:
		return true
	default:
		return false
	}
}

// DefaultExtension is the file extension of teth sources.
const DefaultExtension = ".teth"

// DefaultDebounce is the default quiet period of the file watcher.
const DefaultDebounce = 100 * time.Millisecond

// CacheConfig controls the analysis cache.
type CacheConfig struct {
	// MaxEntries bounds the cached analyses. Zero means no bound.
	MaxEntries int `yaml:"max_entries"`

	// Metrics registers cache counters with the Prometheus default registry.
	Metrics bool `yaml:"metrics"`
}

// LocatorConfig controls the declaration locator.
type LocatorConfig struct {
	// UseIndex searches the sorted declaration index instead of descending
	// the tree.
	UseIndex bool `yaml:"use_index"`
}

// WatchConfig controls the file watcher.
type WatchConfig struct {
	// Debounce is how long to wait for further changes before re-checking.
	Debounce time.Duration `yaml:"debounce"`
}

// Config is the root configuration structure for tethls.
type Config struct {
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`

	// Extension is the file extension of teth sources.
	Extension string `yaml:"extension"`

	// Ignore contains glob patterns for files to ignore.
	Ignore []string `yaml:"ignore"`

	// Jobs specifies the number of parallel workers. 0 means GOMAXPROCS.
	Jobs int `yaml:"jobs"`

	// Format specifies the output format.
	Format OutputFormat `yaml:"format"`

	Cache   CacheConfig   `yaml:"cache"`
	Locator LocatorConfig `yaml:"locator"`
	Watch   WatchConfig   `yaml:"watch"`

	// CLI-level options (not persisted to config files).

	// Color is "auto", "always", or "never".
	Color string `yaml:"-"`

	// Stats prints analysis cache counters after a run.
	Stats bool `yaml:"-"`
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel:  "info",
		Extension: DefaultExtension,
		Format:    FormatText,
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
		Color: "auto",
	}
}
