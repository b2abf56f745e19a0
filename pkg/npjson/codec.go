package npjson

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/tidwall/jsonc"
)

// Codec defines the interface for encoding/decoding messages
type Codec interface {
	// Marshal serializes a value to bytes
	Marshal(v interface{}) ([]byte, error)

	// Unmarshal deserializes bytes to a value
	Unmarshal(data []byte, v interface{}) error

	// Name returns the name of the codec
	Name() string
}

// CodecType represents the type of codec to use
type CodecType string

const (
	// CodecJSON uses JSON encoding (default)
	CodecJSON CodecType = "json"
	// CodecMessagePack uses MessagePack encoding
	CodecMessagePack CodecType = "msgpack"
	// CodecCBOR uses CBOR encoding
	CodecCBOR CodecType = "cbor"
)

// JSONBackend returns the name of the JSON implementation selected at
// compile time with the json_goccy or json_segmentio build tags.
func JSONBackend() string {
	return (&JSONCodec{}).Name()
}

// NewCodec creates a new codec based on the type
func NewCodec(codecType CodecType) (Codec, error) {
	switch codecType {
	case CodecJSON, "":
		return &JSONCodec{}, nil
	case CodecMessagePack:
		return &MessagePackCodec{}, nil
	case CodecCBOR:
		return &CBORCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec type: %s", codecType)
	}
}

// indenter is implemented by text backends that can pretty-print their output.
type indenter interface {
	Indent(dst *bytes.Buffer, src []byte, prefix, indent string) error
}

// syntaxReporter is implemented by backends whose parse errors carry offsets.
type syntaxReporter interface {
	syntaxOffset(err error) (int64, bool)
}

// typeReporter is implemented by backends that report unsupported types.
type typeReporter interface {
	unsupportedType(err error) (reflect.Type, bool)
}

// structTagger is implemented by backends that name struct fields from
// their own struct tag instead of the json tag.
type structTagger interface {
	structTags() []string
}

// Tagged layers the reserved-key convention for arrays and quaternions over
// a backend Codec. A Tagged holds no mutable state and is safe for
// concurrent use.
//
// Decoding cannot tell a wrapper produced by Tagged from a user mapping that
// happens to have exactly one reserved key: both are turned into arrays or
// quaternions.
type Tagged struct {
	backend       Codec
	prefix        string
	indent        string
	allowComments bool
	logger        *Logger
}

// Option configures a Tagged codec
type Option func(*Tagged)

// WithIndent pretty-prints encoded output. It applies to JSON backends only.
func WithIndent(prefix, indent string) Option {
	return func(t *Tagged) {
		t.prefix = prefix
		t.indent = indent
	}
}

// WithComments accepts JSON input with comments and trailing commas.
// It applies to JSON backends only.
func WithComments() Option {
	return func(t *Tagged) {
		t.allowComments = true
	}
}

// WithLogger sets the logger used for debug records
func WithLogger(logger *Logger) Option {
	return func(t *Tagged) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTagged creates a tagged codec over backend. A nil backend selects the
// JSON codec.
func NewTagged(backend Codec, opts ...Option) *Tagged {
	if backend == nil {
		backend = &JSONCodec{}
	}
	t := &Tagged{
		backend: backend,
		logger:  NopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTaggedFromConfig creates a tagged codec from configuration
func NewTaggedFromConfig(cfg CodecConfig, logger *Logger) (*Tagged, error) {
	backend, err := NewCodec(cfg.Type)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithLogger(logger)}
	if cfg.Indent != "" || cfg.Prefix != "" {
		opts = append(opts, WithIndent(cfg.Prefix, cfg.Indent))
	}
	if cfg.AllowComments {
		opts = append(opts, WithComments())
	}
	return NewTagged(backend, opts...), nil
}

// Name returns the name of the codec
func (t *Tagged) Name() string {
	return "tagged-" + t.backend.Name()
}

// Backend returns the codec the convention is layered over
func (t *Tagged) Backend() Codec {
	return t.backend
}

// Encode serializes v, replacing every array and quaternion with its tagged
// wrapper.
func (t *Tagged) Encode(v any) ([]byte, error) {
	l := &lowering{tags: defaultStructTags}
	if st, ok := t.backend.(structTagger); ok {
		l.tags = st.structTags()
	}
	lowered, err := l.lower(v)
	if err != nil {
		return nil, err
	}
	data, err := t.backend.Marshal(lowered)
	if err != nil {
		return nil, t.encodeError(err)
	}
	if ind, ok := t.backend.(indenter); ok && (t.indent != "" || t.prefix != "") {
		var buf bytes.Buffer
		if err := ind.Indent(&buf, data, t.prefix, t.indent); err != nil {
			return nil, fmt.Errorf("npjson: failed to indent output: %w", err)
		}
		data = buf.Bytes()
	}
	t.logger.Debug("encoded document", "codec", t.backend.Name(), "bytes", len(data), "tagged", l.tagged)
	return data, nil
}

// EncodeTo writes the encoding of v to w.
func (t *Tagged) EncodeTo(w io.Writer, v any) error {
	data, err := t.Encode(v)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("npjson: failed to write document: %w", err)
	}
	return nil
}

// Decode parses data and replaces every tagged wrapper with the value it
// names: *NDArray, *QuatArray or Quaternion. Mappings decode as
// map[string]any and lists as []any.
func (t *Tagged) Decode(data []byte) (any, error) {
	var raw any
	if err := t.unmarshalRaw(data, &raw); err != nil {
		return nil, err
	}
	r := &resolving{}
	v, err := r.resolve(raw)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("decoded document", "codec", t.backend.Name(), "bytes", len(data), "tagged", r.tagged)
	return v, nil
}

// DecodeFrom reads all of r and decodes it.
func (t *Tagged) DecodeFrom(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("npjson: failed to read document: %w", err)
	}
	return t.Decode(data)
}

// Marshal implements Codec; it is Encode.
func (t *Tagged) Marshal(v interface{}) ([]byte, error) {
	return t.Encode(v)
}

// Unmarshal implements Codec. Targets of type *any, *map[string]any and
// *[]any get tagged wrappers resolved the way Decode does. Other targets are
// filled by the backend, where NDArray, QuatArray and Quaternion fields
// decode their own wrappers.
func (t *Tagged) Unmarshal(data []byte, v interface{}) error {
	switch target := v.(type) {
	case *any:
		decoded, err := t.Decode(data)
		if err != nil {
			return err
		}
		*target = decoded
		return nil
	case *map[string]any:
		decoded, err := t.Decode(data)
		if err != nil {
			return err
		}
		m, ok := decoded.(map[string]any)
		if !ok && decoded != nil {
			return fmt.Errorf("npjson: cannot unmarshal %T into map[string]any", decoded)
		}
		*target = m
		return nil
	case *[]any:
		decoded, err := t.Decode(data)
		if err != nil {
			return err
		}
		list, ok := decoded.([]any)
		if !ok && decoded != nil {
			return fmt.Errorf("npjson: cannot unmarshal %T into []any", decoded)
		}
		*target = list
		return nil
	}
	return t.unmarshalRaw(data, v)
}

func (t *Tagged) unmarshalRaw(data []byte, v any) error {
	if t.allowComments {
		if _, ok := t.backend.(*JSONCodec); ok {
			data = jsonc.ToJSON(data)
		}
	}
	if err := t.backend.Unmarshal(data, v); err != nil {
		return t.decodeError(err)
	}
	return nil
}

func (t *Tagged) encodeError(err error) error {
	if tr, ok := t.backend.(typeReporter); ok {
		if rt, ok := tr.unsupportedType(err); ok {
			return &TypeError{Type: rt.String()}
		}
	}
	return fmt.Errorf("npjson: %s encode failed: %w", t.backend.Name(), err)
}

func (t *Tagged) decodeError(err error) error {
	// Array unmarshal methods already report their own wrapper errors.
	var tagErr *TagError
	if errors.As(err, &tagErr) {
		return tagErr
	}
	offset := int64(-1)
	if sr, ok := t.backend.(syntaxReporter); ok {
		if off, ok := sr.syntaxOffset(err); ok {
			offset = off
		}
	}
	return &ParseError{Codec: t.backend.Name(), Offset: offset, Err: err}
}

// Dumps encodes v as JSON text with a fresh tagged codec.
func Dumps(v any, opts ...Option) ([]byte, error) {
	return NewTagged(nil, opts...).Encode(v)
}

// Dump writes the JSON encoding of v to w with a fresh tagged codec.
func Dump(w io.Writer, v any, opts ...Option) error {
	return NewTagged(nil, opts...).EncodeTo(w, v)
}

// Loads decodes JSON text with a fresh tagged codec.
func Loads(data []byte, opts ...Option) (any, error) {
	return NewTagged(nil, opts...).Decode(data)
}

// Load decodes JSON text read from r with a fresh tagged codec.
func Load(r io.Reader, opts ...Option) (any, error) {
	return NewTagged(nil, opts...).DecodeFrom(r)
}
