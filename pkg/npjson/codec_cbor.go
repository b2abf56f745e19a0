package npjson

import (
	"errors"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses Core Deterministic Encoding so the same tree always
// produces the same bytes.
var cborEncMode cbor.EncMode

// cborDecMode decodes maps into map[string]any so decoded trees look the
// same as the ones the JSON backends produce.
var cborDecMode cbor.DecMode

func init() {
	var err error

	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("npjson: CBOR encoder initialization failed: " + err.Error())
	}

	cborDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("npjson: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBORCodec implements Codec using CBOR encoding
type CBORCodec struct{}

// Marshal serializes a value to CBOR bytes
func (c *CBORCodec) Marshal(v interface{}) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

// Unmarshal deserializes CBOR bytes to a value
func (c *CBORCodec) Unmarshal(data []byte, v interface{}) error {
	return cborDecMode.Unmarshal(data, v)
}

// Name returns the name of the codec
func (c *CBORCodec) Name() string {
	return "cbor"
}

// structTags follows fxamacker/cbor, which falls back to the json tag
func (c *CBORCodec) structTags() []string {
	return []string{"cbor", "json"}
}

func (c *CBORCodec) unsupportedType(err error) (reflect.Type, bool) {
	var typeErr *cbor.UnsupportedTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Type, true
	}
	return nil, false
}
