package npjson

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// MessagePackCodec implements Codec using MessagePack encoding. Map keys are
// written in sorted order, so equal trees encode to equal bytes as they do
// with the JSON and CBOR codecs.
type MessagePackCodec struct{}

// Marshal serializes a value to MessagePack bytes
func (c *MessagePackCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes MessagePack bytes to a value. Maps decode as
// map[string]interface{} when the target is an interface.
func (c *MessagePackCodec) Unmarshal(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

// Name returns the name of the codec
func (c *MessagePackCodec) Name() string {
	return "msgpack"
}

// structTags follows vmihailenco/msgpack, which reads only the msgpack tag
func (c *MessagePackCodec) structTags() []string {
	return []string{"msgpack"}
}
