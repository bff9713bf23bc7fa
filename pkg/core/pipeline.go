package core

import (
	"context"
	"net"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chd-flightcore/lidar-core/internal/geometry"
	"github.com/chd-flightcore/lidar-core/internal/ingest"
	"github.com/chd-flightcore/lidar-core/internal/octree"
	"github.com/chd-flightcore/lidar-core/internal/planning"
	"github.com/chd-flightcore/lidar-core/internal/spatialindex"
	"github.com/chd-flightcore/lidar-core/internal/telemetry"
)

// TickResult is everything one Pipeline.Tick produced, for a host (renderer,
// test harness) that wants more than the side effect of publishing.
type TickResult struct {
	FrameID   uuid.UUID
	PointsIn  int
	Occupancy map[int][]octree.OccupiedPoint
	Avoidance telemetry.VelocityCommand
	Path      []geometry.Vector3
	PathErr   error
}

// Pipeline wires FrameAggregator -> VoxelFilter -> Octree -> (optimize) ->
// AvoidanceController / APFPlanner -> Publisher into the single per-tick call
// the spec's concurrency model describes: a single-threaded cooperative
// sequence with one suspension point (the aggregator's receive wait).
type Pipeline struct {
	config     CoreConfig
	aggregator *ingest.Aggregator
	avoidance  *planning.AvoidanceController
	apf        *planning.APFPlanner
	publisher  telemetry.Publisher

	sequence uint64
}

// NewPipeline builds a Pipeline reading LiDAR packets from conn. The caller
// owns conn's lifetime (bind and close it); the Pipeline never calls
// net.ListenUDP itself, matching the no-process-wide-state rule.
func NewPipeline(conn net.PacketConn, config CoreConfig, publisher telemetry.Publisher) *Pipeline {
	return &Pipeline{
		config:     config,
		aggregator: ingest.NewAggregator(conn, config.Boundary, config.Logger),
		avoidance:  planning.NewAvoidanceController(config.WarnTriggerDistance),
		apf:        planning.NewAPFPlanner(config.APF),
		publisher:  publisher,
	}
}

// indexSource adapts spatialindex.Index to planning.ObstacleSource.
type indexSource struct {
	idx *spatialindex.Index
}

func (s indexSource) ObstaclesWithin(center geometry.Vector3, radius float32) []geometry.Vector3 {
	obstacles := s.idx.WithinRadius(center, radius)
	out := make([]geometry.Vector3, len(obstacles))
	for i, o := range obstacles {
		out[i] = o.Center
	}
	return out
}

// Tick runs exactly one integration window: aggregate, filter, build,
// optimize, then plan/avoid, then publish. ctx bounds only the aggregation
// wait; every other stage is synchronous CPU work with no suspension point.
// If goal is nil, APF planning is skipped and TickResult.Path is empty with
// a nil PathErr.
func (p *Pipeline) Tick(ctx context.Context, goal *geometry.Vector3) (TickResult, error) {
	frameID := uuid.New()
	p.sequence++

	points, err := p.aggregator.Collect(ctx, p.config.FrameIntegrationTime)
	if err != nil {
		return TickResult{}, errors.Wrap(err, "collect frame")
	}

	filtered := ingest.VoxelFilter(points, p.config.VoxelSize)

	tree, err := octree.NewOctree(p.config.Boundary)
	if err != nil {
		return TickResult{}, errors.Wrap(err, "build octree")
	}
	maxDepth := p.config.resolvedMaxDepth()
	for _, pt := range filtered {
		tree.Insert(pt.Position, maxDepth, pt.Reflectivity)
	}
	tree.Optimize()

	occupancy := tree.ToMap()
	idx := spatialindex.Build(flattenOccupancy(occupancy))

	obstacleThreshold := 3 * p.config.WarnTriggerDistance
	nearbyPositions := indexSource{idx: idx}.ObstaclesWithin(geometry.Vector3{}, obstacleThreshold)
	avoidCmd := p.avoidance.Evaluate(nearbyPositions)
	if pubErr := p.publisher.PublishVelocity(frameID, avoidCmd); pubErr != nil {
		p.config.Logger.Warnw("publish velocity failed", "frame_id", frameID, "error", pubErr)
	}

	result := TickResult{
		FrameID:   frameID,
		PointsIn:  len(points),
		Occupancy: occupancy,
		Avoidance: avoidCmd,
	}

	if goal != nil {
		path, planErr := p.apf.Plan(geometry.Vector3{}, *goal, indexSource{idx: idx})
		result.Path = path
		result.PathErr = planErr
		if planErr == nil {
			if pubErr := p.publisher.PublishPath(frameID, path); pubErr != nil {
				p.config.Logger.Warnw("publish path failed", "frame_id", frameID, "error", pubErr)
			}
		} else {
			p.config.Logger.Debugw("apf planning failed, avoidance stands", "frame_id", frameID, "error", planErr)
		}
	}

	return result, nil
}

func flattenOccupancy(occupancy map[int][]octree.OccupiedPoint) []spatialindex.Obstacle {
	var out []spatialindex.Obstacle
	for _, points := range occupancy {
		for _, pt := range points {
			out = append(out, spatialindex.Obstacle{Center: pt.Center, Reflectivity: pt.Reflectivity})
		}
	}
	return out
}
