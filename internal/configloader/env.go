package configloader

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yaklabco/tethls/pkg/config"
)

// envVarPrefix is the prefix for all tethls environment variables.
const envVarPrefix = "TETHLS_"

// envSetter parses an environment value into the configuration.
type envSetter struct {
	description string
	apply       func(cfg *config.Config, value string) error
}

// envSetters maps environment variable names (without prefix) to setters.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envSetters = map[string]envSetter{
	"LOG_LEVEL": {"Log level: debug, info, warn, or error", func(c *config.Config, v string) error {
		c.LogLevel = v
		return nil
	}},
	"EXTENSION": {"File extension of teth sources", func(c *config.Config, v string) error {
		c.Extension = v
		return nil
	}},
	"FORMAT": {"Output format: text, table, or json", func(c *config.Config, v string) error {
		c.Format = config.OutputFormat(v)
		return nil
	}},
	"IGNORE": {"Comma-separated list of ignore patterns", func(c *config.Config, v string) error {
		c.Ignore = parseSliceValue(v)
		return nil
	}},
	"JOBS": {"Number of parallel workers (0 = auto)", func(c *config.Config, v string) error {
		return parseInt(v, &c.Jobs)
	}},
	"CACHE_MAX_ENTRIES": {"Maximum cached analyses (0 = unbounded)", func(c *config.Config, v string) error {
		return parseInt(v, &c.Cache.MaxEntries)
	}},
	"CACHE_METRICS": {"Register cache metrics: true or false", func(c *config.Config, v string) error {
		return parseBool(v, &c.Cache.Metrics)
	}},
	"LOCATOR_USE_INDEX": {"Use the declaration index: true or false", func(c *config.Config, v string) error {
		return parseBool(v, &c.Locator.UseIndex)
	}},
	"WATCH_DEBOUNCE": {"Watch debounce, e.g. 100ms", func(c *config.Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q", v)
		}
		c.Watch.Debounce = d
		return nil
	}},
}

// LoadFromEnv applies environment variable overrides to the configuration.
// Environment variables are prefixed with TETHLS_ (e.g., TETHLS_JOBS).
func LoadFromEnv(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}

	names := make([]string, 0, len(envSetters))
	for name := range envSetters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		envVar := envVarPrefix + name
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if err := envSetters[name].apply(cfg, value); err != nil {
			return fmt.Errorf("%s: %w", envVar, err)
		}
	}
	return nil
}

func parseInt(value string, dst *int) error {
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer %q", value)
	}
	*dst = i
	return nil
}

func parseBool(value string, dst *bool) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean %q (expected true/false/1/0)", value)
	}
	*dst = b
	return nil
}

// parseSliceValue parses a comma-separated string into a slice.
// Each element is trimmed of whitespace.
func parseSliceValue(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ListEnvVars returns all supported environment variables with their
// descriptions.
func ListEnvVars() map[string]string {
	vars := make(map[string]string, len(envSetters))
	for name, setter := range envSetters {
		vars[envVarPrefix+name] = setter.description
	}
	return vars
}
