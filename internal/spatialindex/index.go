// Package spatialindex is a broad-phase performance layer over the occupied
// leaves of an octree: an R-tree keyed on leaf centroids, giving the
// planners an O(log n) "obstacles within radius r" query instead of a full
// linear scan of octree_to_map's output on every iteration. It never changes
// which obstacles exist, only how fast they are found — the linear scan
// remains the reference path the unit tests check invariants against.
package spatialindex

import (
	"github.com/dhconnelly/rtreego"

	"github.com/chd-flightcore/lidar-core/internal/geometry"
)

const dimensions = 3

// Obstacle is one occupied leaf's centroid and reflectivity, the unit the
// index stores and returns.
type Obstacle struct {
	Center       geometry.Vector3
	Reflectivity uint8
}

// entry adapts Obstacle to rtreego.Spatial: a tiny box (see pointSlack)
// around the centroid, since the index only ever answers point/radius queries, not
// extent overlap.
type entry struct {
	obstacle Obstacle
}

// pointSlack gives each centroid's box a tiny positive extent; rtreego
// rectangles must have a positive side length on every axis.
const pointSlack = 1e-6

func (e entry) Bounds() rtreego.Rect {
	point := rtreego.Point{
		float64(e.obstacle.Center.X) - pointSlack,
		float64(e.obstacle.Center.Y) - pointSlack,
		float64(e.obstacle.Center.Z) - pointSlack,
	}
	lengths := []float64{pointSlack * 2, pointSlack * 2, pointSlack * 2}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// Index is an R-tree over occupied-leaf centroids, built fresh for one
// integration window and discarded with the octree that produced it.
type Index struct {
	rtree *rtreego.Rtree
}

// Build constructs an Index from the flattened points of an
// octree_to_map-style projection. Nodes hold 4 to 8 children (the teacher's
// chart index uses 25/50; obstacle counts per tick are far smaller, so this
// uses gentler bounds).
func Build(obstacles []Obstacle) *Index {
	rtree := rtreego.NewTree(dimensions, 4, 8)
	for _, o := range obstacles {
		rtree.Insert(entry{obstacle: o})
	}
	return &Index{rtree: rtree}
}

// WithinRadius returns every obstacle whose centroid lies within radius of
// center. It queries a bounding cube of side 2*radius around center, then
// filters the candidates by true Euclidean distance — rtreego's
// SearchIntersect is box-based, so the cube query is a superset the caller
// must still narrow.
func (idx *Index) WithinRadius(center geometry.Vector3, radius float32) []Obstacle {
	if idx.rtree == nil || radius <= 0 {
		return nil
	}

	point := rtreego.Point{
		float64(center.X - radius),
		float64(center.Y - radius),
		float64(center.Z - radius),
	}
	lengths := []float64{float64(radius * 2), float64(radius * 2), float64(radius * 2)}
	rect, err := rtreego.NewRect(point, lengths)
	if err != nil {
		return nil
	}

	candidates := idx.rtree.SearchIntersect(rect)
	out := make([]Obstacle, 0, len(candidates))
	for _, c := range candidates {
		o := c.(entry).obstacle
		if o.Center.Distance(center) <= radius {
			out = append(out, o)
		}
	}
	return out
}
