package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const defaultIndent = "  "

// Encoder serializes a value to a writer.
type Encoder interface {
	Encode(w io.Writer, v any) error
}

// JSONEncoder writes JSON with optional indentation.
type JSONEncoder struct {
	// Indent is the indentation string. Empty means compact JSON.
	Indent string
}

// NewJSONEncoder creates a pretty-printing JSON encoder.
func NewJSONEncoder() *JSONEncoder {
	return &JSONEncoder{Indent: defaultIndent}
}

// Encode implements Encoder.
func (e *JSONEncoder) Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if e.Indent != "" {
		enc.SetIndent("", e.Indent)
	}

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// YAMLEncoder writes YAML documents.
type YAMLEncoder struct{}

// Encode implements Encoder.
func (YAMLEncoder) Encode(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write yaml: %w", err)
	}

	return nil
}
