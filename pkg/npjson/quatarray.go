package npjson

import (
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/num/quat"
)

// QuatArray is an n-dimensional array of quaternions in row-major order.
// It encodes as {"__quatarray__": <nested lists of 4-element lists>}.
type QuatArray struct {
	shape []int
	data  []Quaternion
}

// NewQuatArray creates a quaternion array with the given shape over data.
// The array takes ownership of data.
func NewQuatArray(shape []int, data []Quaternion) (*QuatArray, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &QuatArray{shape: append([]int{}, shape...), data: data}, nil
}

// QuatArrayFromSlice builds a quaternion array from a (possibly nested) Go
// slice or array whose leaves are Quaternion or gonum quat.Number values.
func QuatArrayFromSlice(v any) (*QuatArray, error) {
	shape, leaves, err := flattenValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	data := make([]Quaternion, len(leaves))
	for i, leaf := range leaves {
		switch {
		case !leaf.IsValid():
			return nil, fmt.Errorf("npjson: nil quaternion at element %d", i)
		case leaf.Type() == quaternionType:
			data[i] = leaf.Interface().(Quaternion)
		case leaf.Type() == quatNumberType:
			data[i] = FromQuat(leaf.Interface().(quat.Number))
		default:
			return nil, fmt.Errorf("npjson: element %d of type %s is not a quaternion", i, leaf.Type())
		}
	}
	return &QuatArray{shape: shape, data: data}, nil
}

// FromFloatArray groups the trailing dimension of a, which must be 4, into
// quaternions.
func FromFloatArray(a *NDArray) (*QuatArray, error) {
	n := len(a.shape)
	if n == 0 || a.shape[n-1] != 4 {
		return nil, fmt.Errorf("%w: have shape %v", ErrQuaternionWidth, a.shape)
	}
	data := make([]Quaternion, len(a.data)/4)
	for i := range data {
		data[i] = Quaternion{W: a.data[4*i], X: a.data[4*i+1], Y: a.data[4*i+2], Z: a.data[4*i+3]}
	}
	return &QuatArray{shape: append([]int{}, a.shape[:n-1]...), data: data}, nil
}

// FloatArray returns the components as an array with a trailing dimension of 4.
func (q *QuatArray) FloatArray() *NDArray {
	data := make([]float64, 0, 4*len(q.data))
	for _, e := range q.data {
		data = append(data, e.W, e.X, e.Y, e.Z)
	}
	return &NDArray{shape: append(q.Shape(), 4), data: data}
}

// Shape returns a copy of the array's dimensions, not counting the four
// quaternion components.
func (q *QuatArray) Shape() []int {
	return append([]int{}, q.shape...)
}

// Size returns the number of quaternions.
func (q *QuatArray) Size() int {
	return len(q.data)
}

// Data returns the backing row-major slice. It is shared with the array.
func (q *QuatArray) Data() []Quaternion {
	return q.data
}

// At returns the quaternion at the given index. It panics if the index is
// out of range.
func (q *QuatArray) At(idx ...int) Quaternion {
	return q.data[offsetOf(q.shape, idx)]
}

// Nested returns the array as nested []any lists whose innermost lists hold
// the four components.
func (q *QuatArray) Nested() any {
	return nestList(q.shape, q.data, Quaternion.list)
}

// Equal reports whether p has the same shape as q and every component lies
// within tol of q's.
func (q *QuatArray) Equal(p *QuatArray, tol float64) bool {
	if q == nil || p == nil {
		return q == p
	}
	if !reflect.DeepEqual(q.shape, p.shape) {
		return false
	}
	for i := range q.data {
		if !q.data[i].Equal(p.data[i], tol) {
			return false
		}
	}
	return true
}

func (q *QuatArray) String() string {
	return fmt.Sprintf("quatarray%v%v", q.shape, q.data)
}

func (q QuatArray) tagged() map[string]any {
	return map[string]any{KeyQuatArray: q.Nested()}
}

// MarshalJSON encodes the array as a __quatarray__ wrapper.
func (q QuatArray) MarshalJSON() ([]byte, error) {
	return jsonMarshal(q.tagged())
}

// UnmarshalJSON decodes a __quatarray__ wrapper.
func (q *QuatArray) UnmarshalJSON(b []byte) error {
	var v any
	if err := jsonUnmarshal(b, &v); err != nil {
		return err
	}
	return q.setFromWrapper(v)
}

// MarshalMsgpack encodes the array as a __quatarray__ wrapper.
func (q QuatArray) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal(q.tagged())
}

// UnmarshalMsgpack decodes a __quatarray__ wrapper.
func (q *QuatArray) UnmarshalMsgpack(b []byte) error {
	var v any
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return err
	}
	return q.setFromWrapper(v)
}

// MarshalCBOR encodes the array as a __quatarray__ wrapper.
func (q QuatArray) MarshalCBOR() ([]byte, error) {
	return cborEncMode.Marshal(q.tagged())
}

// UnmarshalCBOR decodes a __quatarray__ wrapper.
func (q *QuatArray) UnmarshalCBOR(b []byte) error {
	var v any
	if err := cborDecMode.Unmarshal(b, &v); err != nil {
		return err
	}
	return q.setFromWrapper(v)
}

func (q *QuatArray) setFromWrapper(v any) error {
	content, err := unwrap(KeyQuatArray, v)
	if err != nil {
		return err
	}
	arr, err := quatArrayFromNested(content)
	if err != nil {
		return err
	}
	*q = *arr
	return nil
}

func quatArrayFromNested(v any) (*QuatArray, error) {
	floats, err := fromNested(v)
	if err != nil {
		return nil, &TagError{Key: KeyQuatArray, Err: err}
	}
	if floats.Size() == 0 {
		// An empty array carries no trailing dimension on the wire.
		return &QuatArray{shape: floats.shape, data: []Quaternion{}}, nil
	}
	arr, err := FromFloatArray(floats)
	if err != nil {
		return nil, &TagError{Key: KeyQuatArray, Err: err}
	}
	return arr, nil
}
