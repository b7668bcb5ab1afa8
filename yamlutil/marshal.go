// Package yamlutil holds the YAML encoding shared by command output and
// manifest tooling.
package yamlutil

import (
	"bytes"

	"go.yaml.in/yaml/v3"
)

// DefaultIndent matches the two-space indentation of manifests.
const DefaultIndent = 2

// MarshalWithIndent encodes v as a YAML document using indent spaces per
// nesting level.
func MarshalWithIndent(v any, indent int) ([]byte, error) {
	if indent <= 0 {
		indent = DefaultIndent
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(indent)
	if err := encoder.Encode(v); err != nil {
		_ = encoder.Close()
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
