//go:build json_segmentio

package npjson

import (
	"bytes"
	"errors"
	"reflect"

	"github.com/segmentio/encoding/json"
)

// JSONCodec implements Codec using segmentio/encoding/json
type JSONCodec struct{}

// Marshal serializes a value to JSON bytes using segmentio/encoding/json
func (c *JSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal deserializes JSON bytes to a value using segmentio/encoding/json
func (c *JSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Name returns the name of the codec
func (c *JSONCodec) Name() string {
	return "json-segmentio"
}

// Indent appends an indented form of src to dst
func (c *JSONCodec) Indent(dst *bytes.Buffer, src []byte, prefix, indent string) error {
	return json.Indent(dst, src, prefix, indent)
}

func (c *JSONCodec) syntaxOffset(err error) (int64, bool) {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Offset, true
	}
	return 0, false
}

func (c *JSONCodec) unsupportedType(err error) (reflect.Type, bool) {
	var typeErr *json.UnsupportedTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Type, true
	}
	return nil, false
}

func jsonMarshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func jsonUnmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
