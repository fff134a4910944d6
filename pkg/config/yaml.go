package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteYAML encodes the persisted settings of c to w. A non-empty header
// is written first, followed by a blank line; CLI-only fields are never
// written.
func (c *Config) WriteYAML(w io.Writer, header string) error {
	if header != "" {
		if _, err := io.WriteString(w, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		sep := "\n"
		if header[len(header)-1] != '\n' {
			sep = "\n\n"
		}
		if _, err := io.WriteString(w, sep); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// FromYAML decodes a configuration file. Unknown keys are an error, and an
// empty document yields the zero Config so that defaults can be merged in.
func FromYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}
