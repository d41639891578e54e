package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"physioeval/internal/domain"
)

// YAMLCodec handles YAML import/export of a field map
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Decode reads a single YAML mapping
func (c *YAMLCodec) Decode(r io.Reader) (domain.FieldMap, error) {
	var m domain.FieldMap
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("failed to parse YAML: document is not a mapping")
	}
	return m, nil
}

// Encode writes m as a YAML mapping with keys in sorted order
func (c *YAMLCodec) Encode(m domain.FieldMap, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(map[string]any(m)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}
