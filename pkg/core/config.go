// Package core is the public facade of the LiDAR perception-and-planning
// core: a single CoreConfig value and a Pipeline that ties ingest, the
// occupancy octree, and the two planners into one per-tick call.
package core

import (
	"time"

	"go.uber.org/zap"

	"github.com/chd-flightcore/lidar-core/internal/planning"
)

// CoreConfig carries every runtime tunable in one value — there is no
// process-wide mutable state in this module. The zero value is not usable:
// call DefaultCoreConfig and override what the deployment needs.
type CoreConfig struct {
	// Boundary is the half-edge, in meters, of the root occupancy cube.
	Boundary float32
	// MaxDepth bounds octree recursion. A supplied value of 0 is treated as
	// 6, matching the documented default-on-zero behavior.
	MaxDepth int
	// VoxelSize below 0.05 disables the voxel filter.
	VoxelSize float32
	// FrameIntegrationTime is how long ingest.Aggregator.Collect holds its
	// receive loop open per tick.
	FrameIntegrationTime time.Duration

	APF planning.ApfConfig

	// WarnTriggerDistance has no default; a zero value disables avoidance
	// in practice (every obstacle exceeds a zero trigger), so callers
	// intending to fly MUST set this explicitly.
	WarnTriggerDistance float32

	Logger *zap.SugaredLogger
}

// DefaultCoreConfig returns the documented defaults. WarnTriggerDistance is
// left at zero; the spec defines no default for it.
func DefaultCoreConfig() CoreConfig {
	return CoreConfig{
		Boundary:             10.0,
		MaxDepth:             7,
		VoxelSize:            0.08,
		FrameIntegrationTime: 100 * time.Millisecond,
		APF:                  planning.DefaultApfConfig(),
		Logger:               zap.NewNop().Sugar(),
	}
}

// resolvedMaxDepth applies the "0 means 6" rule.
func (c CoreConfig) resolvedMaxDepth() int {
	if c.MaxDepth == 0 {
		return 6
	}
	return c.MaxDepth
}
