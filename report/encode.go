package report

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Write encodes v in the given format. JSON is indented with two spaces.
func Write(w io.Writer, v any, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "rtguard: encode report as JSON")
		}
		return nil
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "rtguard: encode report as YAML")
		}
		return enc.Close()
	default:
		return errors.NewConfigurationError("format", "must be json or yaml", format)
	}
}
