package npjson

import (
	"reflect"
	"strings"
	"sync"
	"unsafe"
)

// defaultStructTags names struct fields the way encoding/json does
var defaultStructTags = []string{"json"}

// loweringCache maps reflect.Type to the needsLowering result
var loweringCache sync.Map

// needsLowering reports whether a value of type t can hold an array or
// quaternion that the backend would not write as a wrapper by itself.
// NDArray, QuatArray and Quaternion marshal themselves; gonum matrices,
// quat.Number, quaternion slices and interface values do not.
func needsLowering(t reflect.Type) bool {
	if need, ok := loweringCache.Load(t); ok {
		return need.(bool)
	}
	need := typeNeedsLowering(t, map[reflect.Type]bool{})
	loweringCache.Store(t, need)
	return need
}

func typeNeedsLowering(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true

	switch t {
	case ndarrayType, quatArrayType, quaternionType:
		return false
	case quatNumberType:
		return true
	}
	if t.Implements(matrixType) {
		return true
	}
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return false
	}

	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Slice, reflect.Array:
		leaf := t.Elem()
		for leaf.Kind() == reflect.Slice || leaf.Kind() == reflect.Array {
			leaf = leaf.Elem()
		}
		if leaf == quaternionType || leaf == quatNumberType {
			return true
		}
		return typeNeedsLowering(t.Elem(), seen)
	case reflect.Pointer, reflect.Map:
		return typeNeedsLowering(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if (f.IsExported() || f.Anonymous) && typeNeedsLowering(f.Type, seen) {
				return true
			}
		}
	}
	return false
}

// lowerFields rewrites the struct rv into a map keyed by the names the
// backend would give its fields. Fields of embedded structs are promoted
// unless a field of the outer struct has the same name. rv must be
// addressable.
func (l *lowering) lowerFields(rv reflect.Value) (map[string]any, error) {
	t := rv.Type()
	out := make(map[string]any, t.NumField())
	var promoted []map[string]any

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, opts := l.fieldTag(f)
		if name == "-" && opts == "" {
			continue
		}
		fv := readable(rv.Field(i))

		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				sub, err := l.lowerEmbedded(fv)
				if err != nil {
					return nil, err
				}
				if sub != nil {
					promoted = append(promoted, sub)
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if hasTagOption(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}

		elem, err := l.lower(fv.Interface())
		if err != nil {
			return nil, err
		}
		out[name] = elem
	}

	for _, sub := range promoted {
		for k, v := range sub {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out, nil
}

func (l *lowering) lowerEmbedded(fv reflect.Value) (map[string]any, error) {
	if fv.Kind() != reflect.Pointer {
		return l.lowerFields(fv)
	}
	if fv.IsNil() {
		return nil, nil
	}
	leave, err := l.enter(fv)
	if err != nil {
		return nil, err
	}
	defer leave()
	return l.lowerFields(readable(fv.Elem()))
}

func (l *lowering) fieldTag(f reflect.StructField) (name, opts string) {
	tags := l.tags
	if len(tags) == 0 {
		tags = defaultStructTags
	}
	for _, key := range tags {
		if tag, ok := f.Tag.Lookup(key); ok {
			name, opts, _ = strings.Cut(tag, ",")
			return name, opts
		}
	}
	return "", ""
}

// readable clears the read-only flag that reflect sets on values reached
// through unexported embedded fields, so their promoted fields can be read.
func readable(fv reflect.Value) reflect.Value {
	if fv.CanInterface() || !fv.CanAddr() {
		return fv
	}
	return reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
}

func hasTagOption(opts, option string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == option {
			return true
		}
	}
	return false
}

// isEmptyValue follows the omitempty rule of encoding/json.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}
