package config

import (
	"bytes"
	"fmt"
)

// TemplateOptions controls configuration template generation.
type TemplateOptions struct {
	// Full writes every setting with its default value. Otherwise the
	// template is commented out except for the extension.
	Full bool
}

// GenerateTemplate creates a configuration file template.
func GenerateTemplate(opts TemplateOptions) ([]byte, error) {
	var buf bytes.Buffer
	if opts.Full {
		if err := NewConfig().WriteYAML(&buf, DefaultTemplateHeader()); err != nil {
			return nil, fmt.Errorf("generate template: %w", err)
		}
		return buf.Bytes(), nil
	}

	buf.WriteString(DefaultTemplateHeader())
	buf.WriteString(`

# File extension of teth sources
extension: .teth

# Log level: debug, info, warn, or error
# log_level: info

# Number of parallel workers (0 = auto)
# jobs: 0

# Output format: text, table, or json
# format: text

# File patterns to ignore (glob patterns)
# ignore:
#   - "vendor/**"
#   - "build/**"

# Analysis cache
# cache:
#   max_entries: 0
#   metrics: false

# Go-to-definition search strategy
# locator:
#   use_index: false

# Watch mode
# watch:
#   debounce: 100ms
`)
	return buf.Bytes(), nil
}

// DefaultTemplateHeader returns the default header for generated configs.
func DefaultTemplateHeader() string {
	return `# tethls configuration
# See: https://github.com/yaklabco/tethls`
}
