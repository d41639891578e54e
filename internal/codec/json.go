package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tailscale/hujson"

	"physioeval/internal/domain"
)

// JSONCodec handles JSON import/export. Output is indented with two spaces
// and keeps non-ASCII text unescaped. Input may carry comments and trailing
// commas.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Decode reads a single JSON object. Numbers are kept as json.Number so
// integers survive without a float round trip.
func (c *JSONCodec) Decode(r io.Reader) (domain.FieldMap, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	var m domain.FieldMap
	decoder := json.NewDecoder(bytes.NewReader(std))
	decoder.UseNumber()
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("failed to parse JSON: document is not an object")
	}

	return m, nil
}

// Encode writes m as a JSON object
func (c *JSONCodec) Encode(m domain.FieldMap, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
