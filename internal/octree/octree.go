package octree

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/chd-flightcore/lidar-core/internal/geometry"
)

// eps is the small slack (spec: ~1e-5) used both to absorb boundary-
// coincident points on insert and to expand a freshly split child's bounds
// so it overlaps its siblings by that same margin.
const eps float32 = 1e-5

// Octree is a sparse occupancy tree over an axis-aligned cube of side
// 2*boundary, centered at the origin. It is built once per integration
// window, optimized, and then only read by the planners — there is no
// mutation after Optimize, and the tree owns every node it contains (no
// back-pointers, no shared ownership).
type Octree struct {
	root *node
}

// NewOctree creates an empty Octree — a single Free leaf at depth 0 — whose
// root bounds are the cube [-boundary, +boundary]^3.
func NewOctree(boundary float32) (*Octree, error) {
	if boundary <= 0 {
		return nil, errors.Errorf("invalid boundary (%.4f) for octree", boundary)
	}
	bounds := geometry.AABB{
		Min: geometry.Vector3{X: -boundary, Y: -boundary, Z: -boundary},
		Max: geometry.Vector3{X: boundary, Y: boundary, Z: boundary},
	}
	return &Octree{root: newLeaf(bounds, 0)}, nil
}

// Bounds returns the root node's AABB.
func (o *Octree) Bounds() geometry.AABB {
	return o.root.bounds
}

// Insert traverses from the root and records one sample of the given
// reflectivity at the leaf containing point, splitting Free leaves as needed
// until maxDepth is reached. A point outside the root's bounds (within eps
// slack) is silently dropped — defensive handling for voxel centroids that
// land exactly on a boundary, per spec.
func (o *Octree) Insert(point geometry.Vector3, maxDepth int, reflectivity uint8) {
	insert(o.root, point, 0, maxDepth, reflectivity)
}

func insert(n *node, point geometry.Vector3, depth, maxDepth int, reflectivity uint8) {
	if !n.bounds.Contains(point, eps) {
		return
	}

	switch n.kind {
	case internalKind:
		idx := octantIndex(n.center, point)
		insert(n.children[idx], point, depth+1, maxDepth, reflectivity)

	case leafKind:
		if n.occupancy == Occupied {
			n.reflSum += uint32(reflectivity)
			n.reflCount++
			return
		}
		if depth < maxDepth {
			split(n, depth)
			insert(n, point, depth, maxDepth, reflectivity) // re-dispatch: n is Internal now
			return
		}
		n.occupancy = Occupied
		n.reflSum = uint32(reflectivity)
		n.reflCount = 1
	}
}

// split converts a Free leaf into an Internal node with 8 Free child leaves
// covering its octants at depth+1. Purely structural — it consumes no sample
// and produces none.
func split(n *node, depth int) {
	var children [8]*node
	for i := 0; i < 8; i++ {
		childBounds := n.bounds.Octant(i, eps)
		children[i] = newLeaf(childBounds, depth+1)
	}
	n.kind = internalKind
	n.children = children
	n.occupancy = Free
	n.reflSum = 0
	n.reflCount = 0
}

// Optimize performs a bottom-up (post-order) merge: any Internal node whose
// descendants are all Free, or all Occupied, collapses into a single Leaf
// carrying the summed reflectivity accumulators. Running Optimize twice
// yields the same tree as running it once, since a merged Leaf has no
// children left to recurse into.
func (o *Octree) Optimize() {
	optimize(o.root)
}

func optimize(n *node) {
	if n.kind != internalKind {
		return
	}
	for _, c := range n.children {
		optimize(c)
	}
	tryMerge(n)
}

func tryMerge(n *node) {
	allFree := true
	allOccupied := true
	for _, c := range n.children {
		if !isFullyFree(c) {
			allFree = false
		}
		if !isFullyOccupied(c) {
			allOccupied = false
		}
	}
	if !allFree && !allOccupied {
		return
	}

	sum, count := mergeReflectivity(n.children)
	occ := Free
	if allOccupied {
		occ = Occupied
	}
	n.kind = leafKind
	n.occupancy = occ
	n.reflSum = sum
	n.reflCount = count
	n.children = [8]*node{}
}

// OccupiedPoint is one Occupied leaf's projection: its world-frame center and
// mean reflectivity.
type OccupiedPoint struct {
	Center       geometry.Vector3
	Reflectivity uint8
}

// ToMap projects every Occupied leaf to depth -> []OccupiedPoint. This is the
// read-only view planners and the external renderer consume; it never
// exposes node pointers, so a caller can never mutate tree shape through it.
func (o *Octree) ToMap() map[int][]OccupiedPoint {
	out := make(map[int][]OccupiedPoint)
	collectOccupied(o.root, out)
	return out
}

func collectOccupied(n *node, out map[int][]OccupiedPoint) {
	if n.kind == internalKind {
		for _, c := range n.children {
			collectOccupied(c, out)
		}
		return
	}
	if n.occupancy != Occupied {
		return
	}
	refl := uint8(0)
	if n.reflCount > 0 {
		refl = roundReflectivity(n.reflSum, n.reflCount)
	}
	out[n.depth] = append(out[n.depth], OccupiedPoint{Center: n.center, Reflectivity: refl})
}

func roundReflectivity(sum, count uint32) uint8 {
	mean := float32(sum) / float32(count)
	return uint8(mean + 0.5)
}

// candidate pairs a child node with its clamped ray-entry parameter, used to
// order CastRay's descent so the closest subtrees are explored first.
type candidate struct {
	enter float32
	n     *node
}

// CastRay returns the smallest t in [0, maxDistance] at which the ray
// (origin, direction) enters an Occupied leaf, or ok=false if it hits
// nothing within that range. Traversal prunes aggressively: once a hit at t*
// is known, no subtree whose entry time is >= t* is explored.
func (o *Octree) CastRay(origin, direction geometry.Vector3, maxDistance float32) (t float32, ok bool) {
	return castRay(o.root, origin, direction, maxDistance)
}

func castRay(n *node, origin, direction geometry.Vector3, limit float32) (float32, bool) {
	hit, intersects := n.bounds.IntersectRay(origin, direction)
	if !intersects {
		return 0, false
	}
	tEnter := hit.Enter
	if tEnter < 0 {
		tEnter = 0
	}
	if tEnter > limit || hit.Exit < 0 {
		return 0, false
	}

	if n.kind == leafKind {
		if n.occupancy == Occupied {
			return tEnter, true
		}
		return 0, false
	}

	candidates := make([]candidate, 0, 8)
	for _, c := range n.children {
		chHit, intersects := c.bounds.IntersectRay(origin, direction)
		if !intersects {
			continue
		}
		chEnter := chHit.Enter
		if chEnter < 0 {
			chEnter = 0
		}
		if chEnter > limit || chHit.Exit < 0 {
			continue
		}
		candidates = append(candidates, candidate{enter: chEnter, n: c})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].enter < candidates[j].enter })

	best := float32(0)
	found := false
	for _, cand := range candidates {
		bound := limit
		if found {
			bound = best
		}
		if cand.enter > bound || (found && cand.enter >= best) {
			continue
		}
		t, ok := castRay(cand.n, origin, direction, bound)
		if ok && (!found || t < best) {
			best = t
			found = true
		}
	}
	return best, found
}
