// Package geometry provides the vector and bounding-box primitives shared by
// the ingest, octree, and planning packages.
package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// Epsilon is the default tolerance used for floating point comparisons and
// degenerate-vector checks throughout the core.
const Epsilon = 1e-6

// Vector3 is a point or displacement in a right-handed 3D frame. The core
// deliberately keeps this as a value type distinct from r3.Vector so that
// insertion, octree traversal, and force accumulation never carry the extra
// weight of an interface boundary; ToR3/FromR3 interoperate with hosts that
// standardize on golang/geo.
type Vector3 struct {
	X, Y, Z float32
}

// ToR3 converts to github.com/golang/geo/r3.Vector (float64).
func (v Vector3) ToR3() r3.Vector {
	return r3.Vector{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// FromR3 builds a Vector3 from an r3.Vector, narrowing to float32.
func FromR3(v r3.Vector) Vector3 {
	return Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vector3) Scale(s float32) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// Neg returns -v.
func (v Vector3) Neg() Vector3 {
	return Vector3{-v.X, -v.Y, -v.Z}
}

// Dot returns the dot product of v and o.
func (v Vector3) Dot(o Vector3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Norm returns the Euclidean length of v.
func (v Vector3) Norm() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Distance returns the Euclidean distance between v and o.
func (v Vector3) Distance(o Vector3) float32 {
	return v.Sub(o).Norm()
}

// Normalize returns the unit vector in the direction of v, or ok=false if v
// is the zero vector (within Epsilon).
func (v Vector3) Normalize() (Vector3, bool) {
	n := v.Norm()
	if n < Epsilon {
		return Vector3{}, false
	}
	return v.Scale(1 / n), true
}

// IsZero reports whether v is the zero vector within Epsilon.
func (v Vector3) IsZero() bool {
	return v.Norm() < Epsilon
}

// Axis indexes a 3D coordinate; used by octree octant selection.
type Axis int

// Axis values, matching the X/Y/Z ordering used throughout the package.
const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Component returns the value of v along the given axis.
func (v Vector3) Component(a Axis) float32 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}
