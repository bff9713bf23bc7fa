package ingest

import "github.com/chd-flightcore/lidar-core/internal/geometry"

// minVoxelSize is the smallest voxel edge the filter will act on. Below
// this, the grid would be too fine to be a meaningful downsample, so
// filtering is disabled and the input is passed through unchanged.
const minVoxelSize = 0.05

type voxelKey struct {
	x, y, z int32
}

func keyFor(p geometry.Vector3, edge float32) voxelKey {
	return voxelKey{
		x: floorDiv(p.X, edge),
		y: floorDiv(p.Y, edge),
		z: floorDiv(p.Z, edge),
	}
}

func floorDiv(v, edge float32) int32 {
	q := v / edge
	f := int32(q)
	if q < float32(f) {
		f--
	}
	return f
}

// VoxelFilter downsamples points by grid centroid: each bucket produces one
// output point whose position is the arithmetic mean of its members and
// whose reflectivity is the rounded mean. If edge is below minVoxelSize,
// filtering is a no-op and a copy of the input is returned. Output order is
// unspecified — octree insertion is order-independent.
func VoxelFilter(points []Point, edge float32) []Point {
	if edge < minVoxelSize {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}

	type bucket struct {
		sumX, sumY, sumZ float32
		sumRefl          uint32
		count            uint32
	}

	buckets := make(map[voxelKey]*bucket)
	for _, p := range points {
		k := keyFor(p.Position, edge)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		b.sumX += p.Position.X
		b.sumY += p.Position.Y
		b.sumZ += p.Position.Z
		b.sumRefl += uint32(p.Reflectivity)
		b.count++
	}

	out := make([]Point, 0, len(buckets))
	for _, b := range buckets {
		n := float32(b.count)
		out = append(out, Point{
			Position: geometry.Vector3{
				X: b.sumX / n,
				Y: b.sumY / n,
				Z: b.sumZ / n,
			},
			Reflectivity: uint8(roundF(float32(b.sumRefl) / n)),
		})
	}
	return out
}

func roundF(v float32) float32 {
	if v < 0 {
		return float32(int32(v - 0.5))
	}
	return float32(int32(v + 0.5))
}
