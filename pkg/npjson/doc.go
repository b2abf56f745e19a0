// Package npjson encodes n-dimensional numeric arrays and quaternions as
// plain JSON and restores them on decode.
//
// Each array or quaternion is written as a mapping with exactly one
// reserved key whose value is nested lists of numbers:
//
//	{"__ndarray__":    [[1, 2], [3, 4]]}
//	{"__quatarray__":  [[1, 0, 0, 0], [0, 1, 0, 0]]}
//	{"__quaternion__": [1, 0, 0, 0]}
//
// Only the nested-list structure is stored. Decoding always yields float64
// data, and the shape is whatever the lists describe.
//
// A Tagged codec applies the convention on top of a backend Codec:
//
//	codec := npjson.NewTagged(&npjson.JSONCodec{})
//	data, err := codec.Encode(map[string]any{"pose": npjson.Quaternion{W: 1}})
//	v, err := codec.Decode(data)
//
// The same wrappers work over the MessagePack and CBOR codecs. The JSON
// implementation is chosen at build time: encoding/json by default,
// goccy/go-json with -tags json_goccy, segmentio/encoding with
// -tags json_segmentio.
//
// # Structs
//
// Struct fields of type NDArray, QuatArray and Quaternion encode themselves,
// so such structs go to the backend unchanged and decode back into the same
// struct. A struct that can hold a gonum matrix, a quat.Number, a quaternion
// slice or an interface value is rewritten into a map keyed by the backend's
// struct tag (json, msgpack, or cbor falling back to json) so those fields
// are tagged too. Its keys then come out sorted, and decoding it into a
// typed struct needs NDArray or QuatArray fields in place of the gonum and
// slice types.
//
// Encoding a value that contains itself fails with a TypeError.
//
// # Reserved keys
//
// Decoding cannot distinguish a wrapper written by this package from a
// mapping that a user wrote with exactly one reserved key. Both are
// reinterpreted. A mapping with a reserved key plus any other key is left
// alone.
package npjson
