// Package json wraps github.com/goccy/go-json.
package json

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

type Encoder = json.Encoder

func Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func NewEncoder(w io.Writer) *Encoder {
	return json.NewEncoder(w)
}

// PrettyPrint marshals v into an indented JSON string.
func PrettyPrint(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("json: failed to pretty print: %w", err)
	}
	return buf.String(), nil
}
