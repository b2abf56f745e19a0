package npjson

import (
	"errors"
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

func TestKindOf(t *testing.T) {
	var nilArray *NDArray
	var nilDense *mat.Dense
	x := 1

	tests := []struct {
		name  string
		input any
		want  Kind
	}{
		{name: "nil", input: nil, want: KindPlain},
		{name: "string", input: "bar", want: KindPlain},
		{name: "float slice", input: []float64{1, 2}, want: KindPlain},
		{name: "map", input: map[string]any{}, want: KindPlain},
		{name: "ndarray", input: Zeros(2), want: KindNDArray},
		{name: "ndarray value", input: *Zeros(2), want: KindNDArray},
		{name: "nil ndarray", input: nilArray, want: KindPlain},
		{name: "dense", input: mat.NewDense(1, 1, nil), want: KindNDArray},
		{name: "nil dense", input: nilDense, want: KindPlain},
		{name: "quatarray", input: &QuatArray{shape: []int{0}}, want: KindQuatArray},
		{name: "quaternion slice", input: []Quaternion{{W: 1}}, want: KindQuatArray},
		{name: "nested quat.Number", input: [][]quat.Number{{{Real: 1}}}, want: KindQuatArray},
		{name: "quaternion", input: Quaternion{W: 1}, want: KindQuaternion},
		{name: "quaternion pointer", input: &Quaternion{W: 1}, want: KindQuaternion},
		{name: "quat.Number", input: quat.Number{Real: 1}, want: KindQuaternion},
		{name: "chan", input: make(chan int), want: KindUnsupported},
		{name: "func", input: func() {}, want: KindUnsupported},
		{name: "unsafe pointer", input: unsafe.Pointer(&x), want: KindUnsupported},
		{name: "complex", input: complex(1, 2), want: KindUnsupported},
		{name: "complex slice", input: []complex128{1}, want: KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.input))
		})
	}
}

func TestKindKey(t *testing.T) {
	assert.Equal(t, KeyNDArray, KindNDArray.Key())
	assert.Equal(t, KeyQuatArray, KindQuatArray.Key())
	assert.Equal(t, KeyQuaternion, KindQuaternion.Key())
	assert.Equal(t, "", KindPlain.Key())
	assert.Equal(t, "quatarray", KindQuatArray.String())
}

func TestLowerReplacesVariants(t *testing.T) {
	l := &lowering{}
	lowered, err := l.lower(map[string]any{
		"arr":   MustFromSlice([]float64{1, 2}),
		"quats": []Quaternion{{W: 1}},
		"list":  []any{Quaternion{X: 1}, "x"},
		"plain": []float64{3},
	})
	require.NoError(t, err)

	want := map[string]any{
		"arr":   map[string]any{KeyNDArray: []any{1.0, 2.0}},
		"quats": map[string]any{KeyQuatArray: []any{[]any{1.0, 0.0, 0.0, 0.0}}},
		"list":  []any{map[string]any{KeyQuaternion: []any{0.0, 1.0, 0.0, 0.0}}, "x"},
		"plain": []float64{3},
	}
	assert.Equal(t, want, lowered)
	assert.Equal(t, 3, l.tagged)
}

func TestLowerUnsupported(t *testing.T) {
	l := &lowering{}
	_, err := l.lower(map[string]any{"ch": make(chan int)})

	var typeErr *TypeError
	require.True(t, errors.As(err, &typeErr), "got %v", err)
	assert.Equal(t, "chan int", typeErr.Type)
}

func TestResolveBottomUp(t *testing.T) {
	r := &resolving{}
	resolved, err := r.resolve(map[string]any{
		"outer": map[string]any{
			"q": map[string]any{KeyQuaternion: []any{1.0, 0.0, 0.0, 0.0}},
		},
		"list": []any{map[string]any{KeyNDArray: []any{1.0}}},
		"two":  map[string]any{KeyNDArray: []any{1.0}, "other": true},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, r.tagged)

	m := resolved.(map[string]any)
	assert.Equal(t, Quaternion{W: 1}, m["outer"].(map[string]any)["q"])
	assert.IsType(t, &NDArray{}, m["list"].([]any)[0])
	assert.IsType(t, map[string]any{}, m["two"])
}

func TestResolveTagErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		wantKey string
		wantErr error
	}{
		{
			name:    "ragged ndarray",
			input:   map[string]any{KeyNDArray: []any{[]any{1.0, 2.0}, []any{3.0}}},
			wantKey: KeyNDArray,
			wantErr: ErrRaggedArray,
		},
		{
			name:    "non-numeric ndarray",
			input:   map[string]any{KeyNDArray: []any{"a"}},
			wantKey: KeyNDArray,
			wantErr: ErrNotNumeric,
		},
		{
			name:    "short quaternion",
			input:   map[string]any{KeyQuaternion: []any{1.0, 2.0, 3.0}},
			wantKey: KeyQuaternion,
			wantErr: ErrQuaternionWidth,
		},
		{
			name:    "scalar quaternion",
			input:   map[string]any{KeyQuaternion: 1.0},
			wantKey: KeyQuaternion,
			wantErr: ErrQuaternionWidth,
		},
		{
			name:    "narrow quatarray",
			input:   map[string]any{KeyQuatArray: []any{[]any{1.0, 2.0, 3.0}}},
			wantKey: KeyQuatArray,
			wantErr: ErrQuaternionWidth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&resolving{}).resolve(tt.input)

			var tagErr *TagError
			require.True(t, errors.As(err, &tagErr), "got %v", err)
			assert.Equal(t, tt.wantKey, tagErr.Key)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVisit(t *testing.T) {
	tree := map[string]any{
		"b": []any{Quaternion{W: 1}, "skip"},
		"a": map[string]any{"arr": Zeros(2, 2)},
		"c": &QuatArray{shape: []int{0}, data: []Quaternion{}},
	}

	type seen struct {
		path string
		kind Kind
	}
	var got []seen
	err := Visit(tree, func(path string, kind Kind, v any) error {
		got = append(got, seen{path, kind})
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []seen{
		{"$.a.arr", KindNDArray},
		{"$.b[0]", KindQuaternion},
		{"$.c", KindQuatArray},
	}, got)

	stop := errors.New("stop")
	err = Visit(tree, func(string, Kind, any) error { return stop })
	assert.Equal(t, stop, err)
}

func TestNeedsLowering(t *testing.T) {
	type tree struct {
		Kids  []tree
		Value float64
	}
	type holder struct {
		Any any
	}

	tests := []struct {
		name string
		typ  reflect.Type
		want bool
	}{
		{name: "self-marshaling struct", typ: reflect.TypeOf(pose{}), want: false},
		{name: "struct with gonum fields", typ: reflect.TypeOf(scan{}), want: true},
		{name: "float slice", typ: reflect.TypeOf([]float64{}), want: false},
		{name: "quaternion slice", typ: reflect.TypeOf([]Quaternion{}), want: true},
		{name: "ndarray map", typ: reflect.TypeOf(map[string]*NDArray{}), want: false},
		{name: "dense", typ: reflect.TypeOf(&mat.Dense{}), want: true},
		{name: "interface field", typ: reflect.TypeOf(holder{}), want: true},
		{name: "recursive plain type", typ: reflect.TypeOf(tree{}), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsLowering(tt.typ))
		})
	}
}
