// Package presentation renders command results for the CLI.
package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by NewFormatter.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	format string
}

// NewFormatter creates a formatter writing in format. An empty format is
// JSON.
func NewFormatter(writer io.Writer, format string) (*Formatter, error) {
	format = strings.ToLower(format)
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatYAML, FormatTable:
	default:
		return nil, fmt.Errorf("unknown output format %q (json, yaml or table)", format)
	}
	return &Formatter{writer: writer, format: format}, nil
}

// Format writes v. Table output is only defined for row sets; anything
// else falls back to YAML.
func (f *Formatter) Format(v any) error {
	switch f.format {
	case FormatTable:
		if t, ok := v.(Table); ok {
			return t.write(f.writer)
		}
		return f.yaml(v)
	case FormatYAML:
		if t, ok := v.(Table); ok {
			v = t.Source
		}
		return f.yaml(v)
	default:
		if t, ok := v.(Table); ok {
			v = t.Source
		}
		encoder := json.NewEncoder(f.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	}
}

// yaml goes through the JSON form so that field names match the wire
// protocol.
func (f *Formatter) yaml(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	encoder := yaml.NewEncoder(f.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(generic); err != nil {
		return err
	}
	return encoder.Close()
}
