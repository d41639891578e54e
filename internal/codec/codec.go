package codec

import (
	"io"
	"path/filepath"
	"strings"

	"physioeval/internal/domain"
)

// Decoder reads one evaluation field map from a document
type Decoder interface {
	Decode(r io.Reader) (domain.FieldMap, error)
	Format() string
}

// Encoder writes one evaluation field map as a document
type Encoder interface {
	Encode(m domain.FieldMap, w io.Writer) error
	Format() string
}

// Codec is both directions of one document format
type Codec interface {
	Decoder
	Encoder
}

// ForPath picks a codec by file extension. Anything that is not .yaml or
// .yml is treated as JSON.
func ForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYAMLCodec()
	default:
		return NewJSONCodec()
	}
}
