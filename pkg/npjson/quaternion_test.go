package npjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
)

func TestQuaternionQuat(t *testing.T) {
	q := Quaternion{W: 0.5, X: -0.5, Y: 0.25, Z: 1}
	n := q.Quat()
	assert.Equal(t, quat.Number{Real: 0.5, Imag: -0.5, Jmag: 0.25, Kmag: 1}, n)
	assert.Equal(t, q, FromQuat(n))
	assert.Equal(t, [4]float64{0.5, -0.5, 0.25, 1}, q.Components())
}

func TestQuaternionFromComponents(t *testing.T) {
	q, err := QuaternionFromComponents([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, Quaternion{W: 1, X: 2, Y: 3, Z: 4}, q)

	_, err = QuaternionFromComponents([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrQuaternionWidth)
}

func TestQuatArrayFromSlice(t *testing.T) {
	arr, err := QuatArrayFromSlice([][]quat.Number{
		{{Real: 1}, {Imag: 1}},
		{{Jmag: 1}, {Kmag: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, arr.Shape())
	assert.Equal(t, Quaternion{Z: 1}, arr.At(1, 1))

	_, err = QuatArrayFromSlice([]float64{1, 2, 3, 4})
	assert.Error(t, err)
}

func TestQuatArrayFloatArray(t *testing.T) {
	arr, err := NewQuatArray([]int{2}, []Quaternion{{W: 1}, {X: 2, Y: 3}})
	require.NoError(t, err)

	floats := arr.FloatArray()
	assert.Equal(t, []int{2, 4}, floats.Shape())
	assert.Equal(t, []float64{1, 0, 0, 0, 0, 2, 3, 0}, floats.Data())

	back, err := FromFloatArray(floats)
	require.NoError(t, err)
	assert.True(t, arr.Equal(back, 0))

	_, err = FromFloatArray(MustFromSlice([]float64{1, 2, 3}))
	assert.ErrorIs(t, err, ErrQuaternionWidth)
}

func TestQuatArrayNested(t *testing.T) {
	arr, err := NewQuatArray([]int{1, 2}, []Quaternion{{W: 1}, {Z: 1}})
	require.NoError(t, err)
	want := []any{
		[]any{
			[]any{1.0, 0.0, 0.0, 0.0},
			[]any{0.0, 0.0, 0.0, 1.0},
		},
	}
	assert.Equal(t, want, arr.Nested())

	_, err = NewQuatArray([]int{3}, []Quaternion{{}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
