package npjson

import (
	"fmt"
	"reflect"
)

// flattenList walks nested []any lists, returning the shape they describe and
// the leaves in row-major order. A non-list value is a 0-d array with one leaf.
func flattenList(v any) ([]int, []any, error) {
	shape := listShape(v)
	leaves := make([]any, 0, sizeOf(shape))
	if err := collectList(v, shape, &leaves); err != nil {
		return nil, nil, err
	}
	return shape, leaves, nil
}

func listShape(v any) []int {
	shape := []int{}
	for {
		list, ok := v.([]any)
		if !ok {
			return shape
		}
		shape = append(shape, len(list))
		if len(list) == 0 {
			return shape
		}
		v = list[0]
	}
}

func collectList(v any, shape []int, out *[]any) error {
	if len(shape) == 0 {
		if _, ok := v.([]any); ok {
			return ErrRaggedArray
		}
		*out = append(*out, v)
		return nil
	}
	list, ok := v.([]any)
	if !ok || len(list) != shape[0] {
		return ErrRaggedArray
	}
	for _, elem := range list {
		if err := collectList(elem, shape[1:], out); err != nil {
			return err
		}
	}
	return nil
}

// flattenValue is flattenList for typed Go slices and arrays. Leaves are
// returned as reflect values with interfaces and pointers unwrapped.
func flattenValue(rv reflect.Value) ([]int, []reflect.Value, error) {
	shape := valueShape(rv)
	leaves := make([]reflect.Value, 0, sizeOf(shape))
	if err := collectValue(rv, shape, &leaves); err != nil {
		return nil, nil, err
	}
	return shape, leaves, nil
}

func valueShape(rv reflect.Value) []int {
	shape := []int{}
	for {
		rv = indirect(rv)
		if !isList(rv) {
			return shape
		}
		shape = append(shape, rv.Len())
		if rv.Len() == 0 {
			return shape
		}
		rv = rv.Index(0)
	}
}

func collectValue(rv reflect.Value, shape []int, out *[]reflect.Value) error {
	rv = indirect(rv)
	if len(shape) == 0 {
		if isList(rv) {
			return ErrRaggedArray
		}
		*out = append(*out, rv)
		return nil
	}
	if !isList(rv) || rv.Len() != shape[0] {
		return ErrRaggedArray
	}
	for i := 0; i < rv.Len(); i++ {
		if err := collectValue(rv.Index(i), shape[1:], out); err != nil {
			return err
		}
	}
	return nil
}

func isList(rv reflect.Value) bool {
	return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

// nestList rebuilds nested []any lists of the given shape from row-major data.
func nestList[T any](shape []int, data []T, leaf func(T) any) any {
	if len(shape) == 0 {
		if len(data) == 0 {
			// zero-value array
			return []any{}
		}
		return leaf(data[0])
	}
	out := make([]any, shape[0])
	if shape[0] == 0 {
		return out
	}
	stride := len(data) / shape[0]
	for i := range out {
		out[i] = nestList(shape[1:], data[i*stride:(i+1)*stride], leaf)
	}
	return out
}

func sizeOf(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func checkShape(shape []int, n int) error {
	for _, d := range shape {
		if d < 0 {
			return fmt.Errorf("negative dimension in shape %v: %w", shape, ErrShapeMismatch)
		}
	}
	if sizeOf(shape) != n {
		return fmt.Errorf("shape %v holds %d elements, got %d: %w", shape, sizeOf(shape), n, ErrShapeMismatch)
	}
	return nil
}

func offsetOf(shape []int, idx []int) int {
	if len(idx) != len(shape) {
		panic(fmt.Sprintf("npjson: %d indices for %d-d array", len(idx), len(shape)))
	}
	off := 0
	for i, d := range shape {
		if idx[i] < 0 || idx[i] >= d {
			panic(fmt.Sprintf("npjson: index %d out of range for dimension %d of size %d", idx[i], i, d))
		}
		off = off*d + idx[i]
	}
	return off
}

// toFloat converts a decoded leaf to float64. Backends differ in how they
// surface numbers: encoding/json gives float64, MessagePack and CBOR give
// sized integers.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case interface{ Float64() (float64, error) }:
		return n.Float64()
	}
	return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
}

// valueFloat converts a typed leaf to float64. Complex leaves are accepted
// only when their imaginary part is zero.
func valueFloat(rv reflect.Value) (float64, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Complex64, reflect.Complex128:
		c := rv.Complex()
		if imag(c) != 0 {
			return 0, fmt.Errorf("%w: complex value %v has a nonzero imaginary part", ErrNotNumeric, c)
		}
		return real(c), nil
	}
	if !rv.IsValid() {
		return 0, fmt.Errorf("%w: nil", ErrNotNumeric)
	}
	return 0, fmt.Errorf("%w: %s", ErrNotNumeric, rv.Type())
}
