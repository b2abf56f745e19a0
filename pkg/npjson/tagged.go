package npjson

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"unsafe"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Reserved wrapper keys. A mapping with exactly one of these keys is a
// tagged value.
const (
	KeyNDArray    = "__ndarray__"
	KeyQuatArray  = "__quatarray__"
	KeyQuaternion = "__quaternion__"
)

// Kind is the encoding rule selected for a value.
type Kind int

const (
	// KindPlain values follow the backend's own rules
	KindPlain Kind = iota
	// KindNDArray values encode as __ndarray__ wrappers
	KindNDArray
	// KindQuatArray values encode as __quatarray__ wrappers
	KindQuatArray
	// KindQuaternion values encode as __quaternion__ wrappers
	KindQuaternion
	// KindUnsupported values have no encoding rule
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindNDArray:
		return "ndarray"
	case KindQuatArray:
		return "quatarray"
	case KindQuaternion:
		return "quaternion"
	case KindUnsupported:
		return "unsupported"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Key returns the reserved wrapper key for k, or "" for kinds that are not
// tagged.
func (k Kind) Key() string {
	switch k {
	case KindNDArray:
		return KeyNDArray
	case KindQuatArray:
		return KeyQuatArray
	case KindQuaternion:
		return KeyQuaternion
	}
	return ""
}

var (
	quaternionType    = reflect.TypeOf(Quaternion{})
	quatNumberType    = reflect.TypeOf(quat.Number{})
	ndarrayType       = reflect.TypeOf(NDArray{})
	quatArrayType     = reflect.TypeOf(QuatArray{})
	anyType           = reflect.TypeOf((*any)(nil)).Elem()
	matrixType        = reflect.TypeOf((*mat.Matrix)(nil)).Elem()
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

const (
	complexUnsupported  = "complex numbers have no JSON form; build an NDArray with FromSlice for real-valued data"
	functionUnsupported = "channels, functions and unsafe pointers cannot be serialized"
	cycleUnsupported    = "encountered a cycle"
)

// KindOf selects the encoding rule for v.
func KindOf(v any) Kind {
	switch x := v.(type) {
	case nil:
		return KindPlain
	case NDArray:
		return KindNDArray
	case *NDArray:
		return nonNil(x != nil, KindNDArray)
	case QuatArray:
		return KindQuatArray
	case *QuatArray:
		return nonNil(x != nil, KindQuatArray)
	case Quaternion, quat.Number:
		return KindQuaternion
	case *Quaternion:
		return nonNil(x != nil, KindQuaternion)
	case mat.Matrix:
		rv := reflect.ValueOf(x)
		return nonNil(rv.Kind() != reflect.Pointer || !rv.IsNil(), KindNDArray)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return KindUnsupported
	case reflect.Slice, reflect.Array:
		elem := rv.Type().Elem()
		for elem.Kind() == reflect.Slice || elem.Kind() == reflect.Array {
			elem = elem.Elem()
		}
		switch {
		case elem == quaternionType || elem == quatNumberType:
			return KindQuatArray
		case elem.Kind() == reflect.Complex64 || elem.Kind() == reflect.Complex128:
			return KindUnsupported
		}
	}
	return KindPlain
}

func nonNil(ok bool, k Kind) Kind {
	if ok {
		return k
	}
	return KindPlain
}

// lowering rewrites a value tree so that every array and quaternion is
// replaced by its tagged wrapper. Values whose types cannot hold anything the
// backend would miss are passed through untouched.
type lowering struct {
	// tags are the struct tag keys consulted for field names, in order
	tags   []string
	tagged int
	active map[visitKey]struct{}
}

// visitKey identifies a map, slice or pointer on the current lowering path.
type visitKey struct {
	ptr unsafe.Pointer
	typ reflect.Type
	len int
}

func (l *lowering) lower(v any) (any, error) {
	switch KindOf(v) {
	case KindNDArray:
		l.tagged++
		return ndarrayOf(v).tagged(), nil
	case KindQuatArray:
		arr, err := quatArrayOf(v)
		if err != nil {
			return nil, &TypeError{Type: reflect.TypeOf(v).String(), Reason: err.Error()}
		}
		l.tagged++
		return arr.tagged(), nil
	case KindQuaternion:
		l.tagged++
		return quaternionOf(v).tagged(), nil
	case KindUnsupported:
		rt := reflect.TypeOf(v)
		reason := functionUnsupported
		if k := rt.Kind(); k != reflect.Chan && k != reflect.Func && k != reflect.UnsafePointer {
			reason = complexUnsupported
		}
		return nil, &TypeError{Type: rt.String(), Reason: reason}
	}
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().Implements(jsonMarshalerType) || rv.Type().Implements(textMarshalerType) {
		return v, nil
	}
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() || !needsLowering(rv.Type().Elem()) {
			return v, nil
		}
		leave, err := l.enter(rv)
		if err != nil {
			return nil, err
		}
		defer leave()
		if rv.Elem().Kind() == reflect.Struct {
			return l.lowerFields(rv.Elem())
		}
		return l.lower(rv.Elem().Interface())
	case reflect.Struct:
		if !needsLowering(rv.Type()) {
			return v, nil
		}
		// Unexported embedded fields can only be read through an addressable copy.
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		return l.lowerFields(cp)
	case reflect.Map:
		if rv.IsNil() || !needsLowering(rv.Type().Elem()) {
			return v, nil
		}
		leave, err := l.enter(rv)
		if err != nil {
			return nil, err
		}
		defer leave()
		return l.lowerMap(rv)
	case reflect.Slice, reflect.Array:
		if (rv.Kind() == reflect.Slice && rv.IsNil()) || !needsLowering(rv.Type().Elem()) {
			return v, nil
		}
		if rv.Kind() == reflect.Slice {
			leave, err := l.enter(rv)
			if err != nil {
				return nil, err
			}
			defer leave()
		}
		out := make([]any, rv.Len())
		for i := range out {
			elem, err := l.lower(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	}
	return v, nil
}

// enter records rv on the current path and returns the func that removes it.
// Reaching a value that is already on the path is a cycle.
func (l *lowering) enter(rv reflect.Value) (func(), error) {
	key := visitKey{ptr: rv.UnsafePointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		key.len = rv.Len()
	}
	if _, ok := l.active[key]; ok {
		return nil, &TypeError{Type: rv.Type().String(), Reason: cycleUnsupported}
	}
	if l.active == nil {
		l.active = make(map[visitKey]struct{})
	}
	l.active[key] = struct{}{}
	return func() { delete(l.active, key) }, nil
}

func (l *lowering) lowerMap(rv reflect.Value) (any, error) {
	iter := rv.MapRange()
	if rv.Type().Key().Kind() == reflect.String {
		out := make(map[string]any, rv.Len())
		for iter.Next() {
			elem, err := l.lower(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = elem
		}
		return out, nil
	}
	// Other key types keep their type so the backend converts them as usual.
	out := reflect.MakeMapWithSize(reflect.MapOf(rv.Type().Key(), anyType), rv.Len())
	for iter.Next() {
		elem, err := l.lower(iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		ev := reflect.Zero(anyType)
		if elem != nil {
			ev = reflect.ValueOf(elem)
		}
		out.SetMapIndex(iter.Key(), ev)
	}
	return out.Interface(), nil
}

func ndarrayOf(v any) *NDArray {
	switch x := v.(type) {
	case NDArray:
		return &x
	case *NDArray:
		return x
	case mat.Matrix:
		return FromMatrix(x)
	}
	panic(fmt.Sprintf("npjson: %T is not an ndarray", v))
}

func quatArrayOf(v any) (*QuatArray, error) {
	switch x := v.(type) {
	case QuatArray:
		return &x, nil
	case *QuatArray:
		return x, nil
	}
	return QuatArrayFromSlice(v)
}

func quaternionOf(v any) Quaternion {
	switch x := v.(type) {
	case Quaternion:
		return x
	case *Quaternion:
		return *x
	case quat.Number:
		return FromQuat(x)
	}
	panic(fmt.Sprintf("npjson: %T is not a quaternion", v))
}

// resolving replaces tagged wrappers in a decoded tree, innermost first.
type resolving struct {
	tagged int
}

func (r *resolving) resolve(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		for k, elem := range x {
			resolved, err := r.resolve(elem)
			if err != nil {
				return nil, err
			}
			x[k] = resolved
		}
		if len(x) == 1 {
			for k, content := range x {
				if isReservedKey(k) {
					r.tagged++
					return fromTag(k, content)
				}
			}
		}
		return x, nil
	case []any:
		for i, elem := range x {
			resolved, err := r.resolve(elem)
			if err != nil {
				return nil, err
			}
			x[i] = resolved
		}
		return x, nil
	}
	return v, nil
}

func isReservedKey(k string) bool {
	return k == KeyNDArray || k == KeyQuatArray || k == KeyQuaternion
}

func fromTag(key string, content any) (any, error) {
	switch key {
	case KeyNDArray:
		arr, err := fromNested(content)
		if err != nil {
			return nil, &TagError{Key: key, Err: err}
		}
		return arr, nil
	case KeyQuatArray:
		return quatArrayFromNested(content)
	case KeyQuaternion:
		q, err := quaternionFromNested(content)
		if err != nil {
			return nil, &TagError{Key: key, Err: err}
		}
		return q, nil
	}
	return nil, fmt.Errorf("npjson: %q is not a reserved key", key)
}

// unwrap checks that v is a single-key mapping under key and returns its content.
func unwrap(key string, v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return nil, &TagError{Key: key, Err: fmt.Errorf("expected a single-key mapping, got %T", v)}
	}
	content, ok := m[key]
	if !ok {
		return nil, &TagError{Key: key, Err: fmt.Errorf("missing %s key", key)}
	}
	return content, nil
}

// VisitFunc is called by Visit for each tagged value. path locates the value
// from the root, written as $.key[index].
type VisitFunc func(path string, kind Kind, v any) error

// Visit walks a decoded tree and calls fn for every NDArray, QuatArray and
// Quaternion in it. Map keys are visited in sorted order. Visit stops at the
// first error returned by fn.
func Visit(v any, fn VisitFunc) error {
	return visit("$", v, fn)
}

func visit(path string, v any, fn VisitFunc) error {
	switch x := v.(type) {
	case *NDArray:
		return fn(path, KindNDArray, x)
	case *QuatArray:
		return fn(path, KindQuatArray, x)
	case Quaternion:
		return fn(path, KindQuaternion, x)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := visit(path+"."+k, x[k], fn); err != nil {
				return err
			}
		}
	case []any:
		for i, elem := range x {
			if err := visit(path+"["+strconv.Itoa(i)+"]", elem, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
