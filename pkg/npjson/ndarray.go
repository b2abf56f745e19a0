package npjson

import (
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"
)

// NDArray is an n-dimensional array of float64 values stored in row-major
// order. It encodes as {"__ndarray__": <nested lists>}.
//
// Only the nested-list structure travels on the wire, so element width is
// not preserved: every decoded array holds float64 data. The zero value
// encodes as an empty array.
type NDArray struct {
	shape []int
	data  []float64
}

// NewNDArray creates an array with the given shape over data. The array
// takes ownership of data.
func NewNDArray(shape []int, data []float64) (*NDArray, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &NDArray{shape: append([]int{}, shape...), data: data}, nil
}

// Zeros returns a zero-filled array of the given shape.
func Zeros(shape ...int) *NDArray {
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Sprintf("npjson: negative dimension in shape %v", shape))
		}
	}
	return &NDArray{shape: append([]int{}, shape...), data: make([]float64, sizeOf(shape))}
}

// FromSlice builds an array from a (possibly nested) Go slice or array of
// numbers. Nested slices must be rectangular. Complex numbers are accepted
// when their imaginary part is zero. A bare number gives a 0-d array.
func FromSlice(v any) (*NDArray, error) {
	shape, leaves, err := flattenValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	data := make([]float64, len(leaves))
	for i, leaf := range leaves {
		if data[i], err = valueFloat(leaf); err != nil {
			return nil, err
		}
	}
	return &NDArray{shape: shape, data: data}, nil
}

// MustFromSlice is like FromSlice but panics on error.
func MustFromSlice(v any) *NDArray {
	a, err := FromSlice(v)
	if err != nil {
		panic(err)
	}
	return a
}

// FromMatrix copies a gonum matrix into a 2-d array. Vectors become 1-d arrays.
func FromMatrix(m mat.Matrix) *NDArray {
	if vec, ok := m.(mat.Vector); ok {
		data := make([]float64, vec.Len())
		for i := range data {
			data[i] = vec.AtVec(i)
		}
		return &NDArray{shape: []int{len(data)}, data: data}
	}
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return &NDArray{shape: []int{r, c}, data: data}
}

// fromNested builds an array from decoded nested lists.
func fromNested(v any) (*NDArray, error) {
	shape, leaves, err := flattenList(v)
	if err != nil {
		return nil, err
	}
	data := make([]float64, len(leaves))
	for i, leaf := range leaves {
		if data[i], err = toFloat(leaf); err != nil {
			return nil, err
		}
	}
	return &NDArray{shape: shape, data: data}, nil
}

// Shape returns a copy of the array's dimensions.
func (a *NDArray) Shape() []int {
	return append([]int{}, a.shape...)
}

// Ndim returns the number of dimensions.
func (a *NDArray) Ndim() int {
	return len(a.shape)
}

// Size returns the number of elements.
func (a *NDArray) Size() int {
	return len(a.data)
}

// Data returns the backing row-major slice. It is shared with the array.
func (a *NDArray) Data() []float64 {
	return a.data
}

// At returns the element at the given index. It panics if the index is out
// of range.
func (a *NDArray) At(idx ...int) float64 {
	return a.data[offsetOf(a.shape, idx)]
}

// Set stores v at the given index. It panics if the index is out of range.
func (a *NDArray) Set(v float64, idx ...int) {
	a.data[offsetOf(a.shape, idx)] = v
}

// Nested returns the array as nested []any lists of float64, or a bare
// float64 for a 0-d array.
func (a *NDArray) Nested() any {
	return nestList(a.shape, a.data, func(f float64) any { return f })
}

// Dense copies a 2-d array into a gonum matrix.
func (a *NDArray) Dense() (*mat.Dense, error) {
	if len(a.shape) != 2 {
		return nil, fmt.Errorf("npjson: Dense needs a 2-d array, have shape %v", a.shape)
	}
	if a.shape[0] == 0 || a.shape[1] == 0 {
		return nil, fmt.Errorf("npjson: Dense needs a non-empty array, have shape %v", a.shape)
	}
	return mat.NewDense(a.shape[0], a.shape[1], append([]float64{}, a.data...)), nil
}

// Equal reports whether b has the same shape as a and every element lies
// within tol of a's.
func (a *NDArray) Equal(b *NDArray, tol float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !reflect.DeepEqual(a.shape, b.shape) {
		return false
	}
	for i := range a.data {
		if d := a.data[i] - b.data[i]; d > tol || d < -tol {
			return false
		}
	}
	return true
}

func (a *NDArray) String() string {
	return fmt.Sprintf("ndarray%v%v", a.shape, a.Nested())
}

func (a NDArray) tagged() map[string]any {
	return map[string]any{KeyNDArray: a.Nested()}
}

// MarshalJSON encodes the array as an __ndarray__ wrapper.
func (a NDArray) MarshalJSON() ([]byte, error) {
	return jsonMarshal(a.tagged())
}

// UnmarshalJSON decodes an __ndarray__ wrapper.
func (a *NDArray) UnmarshalJSON(b []byte) error {
	var v any
	if err := jsonUnmarshal(b, &v); err != nil {
		return err
	}
	return a.setFromWrapper(v)
}

// MarshalMsgpack encodes the array as an __ndarray__ wrapper.
func (a NDArray) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal(a.tagged())
}

// UnmarshalMsgpack decodes an __ndarray__ wrapper.
func (a *NDArray) UnmarshalMsgpack(b []byte) error {
	var v any
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return err
	}
	return a.setFromWrapper(v)
}

// MarshalCBOR encodes the array as an __ndarray__ wrapper.
func (a NDArray) MarshalCBOR() ([]byte, error) {
	return cborEncMode.Marshal(a.tagged())
}

// UnmarshalCBOR decodes an __ndarray__ wrapper.
func (a *NDArray) UnmarshalCBOR(b []byte) error {
	var v any
	if err := cborDecMode.Unmarshal(b, &v); err != nil {
		return err
	}
	return a.setFromWrapper(v)
}

func (a *NDArray) setFromWrapper(v any) error {
	content, err := unwrap(KeyNDArray, v)
	if err != nil {
		return err
	}
	arr, err := fromNested(content)
	if err != nil {
		return &TagError{Key: KeyNDArray, Err: err}
	}
	*a = *arr
	return nil
}
