package geometry

import "math"

// AABB is an axis-aligned bounding box, stored as inclusive [Min, Max] per
// axis. This mirrors the teacher's Bounds type (internal/parser/spatial.go
// in the reference chart parser) generalized from 2D geographic boxes to 3D
// sensor-frame cubes.
type AABB struct {
	Min, Max Vector3
}

// NewAABB builds an AABB from two opposing corners, regardless of order.
func NewAABB(a, b Vector3) AABB {
	min := Vector3{minF(a.X, b.X), minF(a.Y, b.Y), minF(a.Z, b.Z)}
	max := Vector3{maxF(a.X, b.X), maxF(a.Y, b.Y), maxF(a.Z, b.Z)}
	return AABB{Min: min, Max: max}
}

// Center returns the arithmetic midpoint of the box.
func (b AABB) Center() Vector3 {
	return Vector3{
		(b.Min.X + b.Max.X) / 2,
		(b.Min.Y + b.Max.Y) / 2,
		(b.Min.Z + b.Max.Z) / 2,
	}
}

// Contains reports whether p lies within the box, expanded by slack on every
// axis. A voxel centroid that lands exactly on a child boundary must still be
// considered contained; slack absorbs that without changing box geometry.
func (b AABB) Contains(p Vector3, slack float32) bool {
	return p.X >= b.Min.X-slack && p.X <= b.Max.X+slack &&
		p.Y >= b.Min.Y-slack && p.Y <= b.Max.Y+slack &&
		p.Z >= b.Min.Z-slack && p.Z <= b.Max.Z+slack
}

// Expand returns a copy of b grown by margin on every axis, in every
// direction.
func (b AABB) Expand(margin float32) AABB {
	return AABB{
		Min: Vector3{b.Min.X - margin, b.Min.Y - margin, b.Min.Z - margin},
		Max: Vector3{b.Max.X + margin, b.Max.Y + margin, b.Max.Z + margin},
	}
}

// Octant returns the child box for octant index (0..7), where bit 0 selects
// +X vs -X, bit 1 selects +Y vs -Y, and bit 2 selects +Z vs -Z relative to
// the parent's center, expanded by epsSlack to absorb boundary-coincident
// points per the octree's child-bounds invariant.
func (b AABB) Octant(index int, epsSlack float32) AABB {
	center := b.Center()
	half := (b.Max.X - b.Min.X) / 2
	quarter := half / 2

	sign := func(bit int) float32 {
		if index&bit != 0 {
			return 1
		}
		return -1
	}

	offset := Vector3{
		sign(1) * quarter,
		sign(2) * quarter,
		sign(4) * quarter,
	}

	childCenter := center.Add(offset)
	min := Vector3{
		childCenter.X - quarter - epsSlack,
		childCenter.Y - quarter - epsSlack,
		childCenter.Z - quarter - epsSlack,
	}
	max := Vector3{
		childCenter.X + quarter + epsSlack,
		childCenter.Y + quarter + epsSlack,
		childCenter.Z + quarter + epsSlack,
	}
	return AABB{Min: min, Max: max}
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// RayHit is the result of intersecting a ray with an AABB: the entry and
// exit parameters along the ray, both clamped to be non-negative on entry.
type RayHit struct {
	Enter, Exit float32
}

// IntersectRay computes the slab intersection of the ray (origin, dir) with
// b, per spec: for axes with |dir| >= Epsilon, track the running
// [enter, exit] interval; for near-parallel axes, require the origin to
// already lie within the slab on that axis or reject outright.
func (b AABB) IntersectRay(origin, dir Vector3) (RayHit, bool) {
	tEnter := negInf
	tExit := posInf

	axes := [3]Axis{AxisX, AxisY, AxisZ}
	for _, axis := range axes {
		o := origin.Component(axis)
		d := dir.Component(axis)
		lo := b.Min.Component(axis)
		hi := b.Max.Component(axis)

		if absF(d) < Epsilon {
			if o < lo || o > hi {
				return RayHit{}, false
			}
			continue
		}

		inv := 1 / d
		t1 := (lo - o) * inv
		t2 := (hi - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tEnter {
			tEnter = t1
		}
		if t2 < tExit {
			tExit = t2
		}
		if tEnter > tExit {
			return RayHit{}, false
		}
	}

	if tEnter < 0 {
		tEnter = 0 // origin inside the box
	}
	return RayHit{Enter: tEnter, Exit: tExit}, true
}

var (
	posInf = float32(math.Inf(1))
	negInf = float32(math.Inf(-1))
)

func absF(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
