package store

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Codec encodes documents for a Backend
type Codec interface {
	Marshal(doc Document) ([]byte, error)
	Unmarshal(data []byte, doc *Document) error
	// Ext is the file extension used by file-based backends
	Ext() string
}

// JSONCodec stores documents as indented JSON
type JSONCodec struct{}

func (JSONCodec) Marshal(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func (JSONCodec) Unmarshal(data []byte, doc *Document) error {
	return json.Unmarshal(data, doc)
}

func (JSONCodec) Ext() string { return "json" }

// YAMLCodec stores documents as YAML
type YAMLCodec struct{}

func (YAMLCodec) Marshal(doc Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

func (YAMLCodec) Unmarshal(data []byte, doc *Document) error {
	return yaml.Unmarshal(data, doc)
}

func (YAMLCodec) Ext() string { return "yaml" }

// CodecFor returns the codec for a format name
func CodecFor(format string) (Codec, error) {
	switch format {
	case "", "json":
		return JSONCodec{}, nil
	case "yaml", "yml":
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown store format: %s", format)
	}
}
