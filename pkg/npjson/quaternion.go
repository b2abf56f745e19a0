package npjson

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a rotation value with scalar part W and vector part X, Y, Z.
// It encodes as {"__quaternion__": [w, x, y, z]}.
type Quaternion struct {
	W, X, Y, Z float64
}

// FromQuat converts a gonum quaternion.
func FromQuat(n quat.Number) Quaternion {
	return Quaternion{W: n.Real, X: n.Imag, Y: n.Jmag, Z: n.Kmag}
}

// QuaternionFromComponents builds a quaternion from exactly four components
// in w, x, y, z order.
func QuaternionFromComponents(c []float64) (Quaternion, error) {
	if len(c) != 4 {
		return Quaternion{}, fmt.Errorf("%w: got %d components", ErrQuaternionWidth, len(c))
	}
	return Quaternion{W: c[0], X: c[1], Y: c[2], Z: c[3]}, nil
}

// Quat converts q to a gonum quaternion.
func (q Quaternion) Quat() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// Components returns w, x, y, z.
func (q Quaternion) Components() [4]float64 {
	return [4]float64{q.W, q.X, q.Y, q.Z}
}

// Equal reports whether every component of p lies within tol of q's.
func (q Quaternion) Equal(p Quaternion, tol float64) bool {
	a, b := q.Components(), p.Components()
	for i := range a {
		if d := a[i] - b[i]; d > tol || d < -tol {
			return false
		}
	}
	return true
}

func (q Quaternion) String() string {
	return fmt.Sprintf("quaternion(%g, %g, %g, %g)", q.W, q.X, q.Y, q.Z)
}

func (q Quaternion) list() any {
	return []any{q.W, q.X, q.Y, q.Z}
}

func (q Quaternion) tagged() map[string]any {
	return map[string]any{KeyQuaternion: q.list()}
}

// quaternionFromNested rebuilds a quaternion from a decoded 4-element list.
func quaternionFromNested(v any) (Quaternion, error) {
	list, ok := v.([]any)
	if !ok {
		return Quaternion{}, fmt.Errorf("%w: got %T", ErrQuaternionWidth, v)
	}
	c := make([]float64, len(list))
	for i, elem := range list {
		f, err := toFloat(elem)
		if err != nil {
			return Quaternion{}, err
		}
		c[i] = f
	}
	return QuaternionFromComponents(c)
}

// MarshalJSON encodes the quaternion as a __quaternion__ wrapper.
func (q Quaternion) MarshalJSON() ([]byte, error) {
	return jsonMarshal(q.tagged())
}

// UnmarshalJSON decodes a __quaternion__ wrapper.
func (q *Quaternion) UnmarshalJSON(b []byte) error {
	var v any
	if err := jsonUnmarshal(b, &v); err != nil {
		return err
	}
	return q.setFromWrapper(v)
}

// MarshalMsgpack encodes the quaternion as a __quaternion__ wrapper.
func (q Quaternion) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal(q.tagged())
}

// UnmarshalMsgpack decodes a __quaternion__ wrapper.
func (q *Quaternion) UnmarshalMsgpack(b []byte) error {
	var v any
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return err
	}
	return q.setFromWrapper(v)
}

// MarshalCBOR encodes the quaternion as a __quaternion__ wrapper.
func (q Quaternion) MarshalCBOR() ([]byte, error) {
	return cborEncMode.Marshal(q.tagged())
}

// UnmarshalCBOR decodes a __quaternion__ wrapper.
func (q *Quaternion) UnmarshalCBOR(b []byte) error {
	var v any
	if err := cborDecMode.Unmarshal(b, &v); err != nil {
		return err
	}
	return q.setFromWrapper(v)
}

func (q *Quaternion) setFromWrapper(v any) error {
	content, err := unwrap(KeyQuaternion, v)
	if err != nil {
		return err
	}
	p, err := quaternionFromNested(content)
	if err != nil {
		return &TagError{Key: KeyQuaternion, Err: err}
	}
	*q = p
	return nil
}
