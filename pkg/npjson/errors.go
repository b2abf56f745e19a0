package npjson

import (
	"errors"
	"fmt"
)

// Errors reported while building arrays from nested lists or slices
var (
	ErrRaggedArray     = errors.New("nested lists do not form a rectangular array")
	ErrNotNumeric      = errors.New("array element is not a number")
	ErrQuaternionWidth = errors.New("quaternion data must have a trailing dimension of 4")
	ErrShapeMismatch   = errors.New("data length does not match shape")
)

// ParseError reports malformed input text.
type ParseError struct {
	// Codec is the name of the backend that rejected the input
	Codec string
	// Offset is the byte offset of the error, or -1 when the backend does not report one
	Offset int64
	Err    error
}

// Error implements error interface
func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("npjson: %s parse error at offset %d: %v", e.Codec, e.Offset, e.Err)
	}
	return fmt.Sprintf("npjson: %s parse error: %v", e.Codec, e.Err)
}

// Unwrap returns wrapped error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// TypeError reports a value that has no encoding rule.
type TypeError struct {
	// Type is the Go type name of the offending value
	Type   string
	Reason string
}

// Error implements error interface
func (e *TypeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("npjson: object of type %s is not serializable: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("npjson: object of type %s is not serializable", e.Type)
}

// TagError reports a tagged wrapper whose content cannot be turned back
// into the value its key names.
type TagError struct {
	Key string
	Err error
}

// Error implements error interface
func (e *TagError) Error() string {
	return fmt.Sprintf("npjson: invalid %s value: %v", e.Key, e.Err)
}

// Unwrap returns wrapped error
func (e *TagError) Unwrap() error {
	return e.Err
}
