package config

import (
	"path/filepath"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"

	"github.com/confweave/confweave/value"
)

// Format identifies a config file syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func (f Format) String() string { return string(f) }

// Parser returns the koanf parser handling this format.
func (f Format) Parser() koanf.Parser {
	switch f {
	case FormatTOML:
		return toml.Parser()
	case FormatJSON:
		return json.Parser()
	default:
		return yaml.Parser()
	}
}

// DetectFormat infers a file's format from its extension, defaulting
// to YAML, which also parses JSON documents.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// FileDecoder turns raw file contents into a document mapping. It is
// a collaborator of the resolver so tests and embedders can substitute
// their own decoding.
type FileDecoder interface {
	Decode(data []byte, format Format) (*value.Mapping, error)
}

// NewFileDecoder returns the default decoder backed by the koanf
// parsers.
func NewFileDecoder() FileDecoder {
	return parserDecoder{}
}

type parserDecoder struct{}

func (parserDecoder) Decode(data []byte, format Format) (*value.Mapping, error) {
	raw, err := format.Parser().Unmarshal(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to decode config file contents").
			WithTextCode(TextCodeFileDecode).
			WithMetadata(map[string]any{
				"format": string(format),
			})
	}

	doc, err := value.FromAny(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "decoded file holds unrepresentable values").
			WithTextCode(TextCodeFileDecode)
	}
	m, ok := doc.Mapping()
	if !ok {
		return nil, errors.New("top-level file value must be a mapping", errors.CategoryBadInput).
			WithTextCode(TextCodeFileDecode).
			WithMetadata(map[string]any{
				"format": string(format),
				"kind":   doc.Kind().String(),
			})
	}
	return m, nil
}
