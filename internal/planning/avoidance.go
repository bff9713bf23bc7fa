// Package planning implements the two reactive/goal-directed controllers
// that sit on top of the occupancy octree: AvoidanceController (short-horizon
// repulsion) and APFPlanner (longer-horizon potential-field path search).
package planning

import (
	"sort"

	"github.com/chd-flightcore/lidar-core/internal/frames"
	"github.com/chd-flightcore/lidar-core/internal/geometry"
	"github.com/chd-flightcore/lidar-core/internal/telemetry"
)

const (
	maxAvoidanceSpeed = 1.0
	yawSpinRate       = 0.5
	repulsionEpsilon  = 1e-6
)

// AvoidanceController computes a short-horizon repulsive VelocityCommand from
// the nearest obstacles in sensor frame. It carries no occupancy state of its
// own — each call is handed the current tick's obstacle list.
type AvoidanceController struct {
	warnTriggerDistance float32
}

// NewAvoidanceController builds a controller for the given warn-trigger
// distance, which has no default and must be supplied by the caller.
func NewAvoidanceController(warnTriggerDistance float32) *AvoidanceController {
	return &AvoidanceController{warnTriggerDistance: warnTriggerDistance}
}

type obstacle struct {
	position geometry.Vector3
	distance float32
}

// Evaluate runs the full avoidance algorithm over obstaclePositions (points
// in sensor frame, relative to the vehicle at the origin) and returns the
// resulting VelocityCommand, expressed in FRD.
func (c *AvoidanceController) Evaluate(obstaclePositions []geometry.Vector3) telemetry.VelocityCommand {
	threshold := 3 * c.warnTriggerDistance

	var candidates []obstacle
	for _, p := range obstaclePositions {
		d := p.Norm()
		if d < threshold {
			candidates = append(candidates, obstacle{position: p, distance: d})
		}
	}
	if len(candidates) == 0 {
		return telemetry.ZeroVelocity()
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].distance < candidates[j].distance })
	nearest := candidates[0]
	if nearest.distance > c.warnTriggerDistance {
		return telemetry.ZeroVelocity()
	}

	sum := geometry.Vector3{}
	for _, ob := range candidates {
		w := 1 / (ob.distance*ob.distance*ob.distance + repulsionEpsilon)
		sum = sum.Add(ob.position.Neg().Scale(w))
	}

	if sum.Norm() >= geometry.Epsilon {
		dir, _ := sum.Normalize()
		return telemetry.FromFRDVelocity(frames.Mid360ToFRD(dir).Scale(maxAvoidanceSpeed))
	}

	// Forces canceled (net repulsion below Epsilon). Fly directly away from the nearest obstacle,
	// unless its direction is itself degenerate (it sits at the origin).
	dir, ok := nearest.position.Neg().Normalize()
	if !ok {
		return telemetry.YawSpin(yawSpinRate)
	}
	return telemetry.FromFRDVelocity(frames.Mid360ToFRD(dir).Scale(maxAvoidanceSpeed))
}
