package telemetry

import (
	"go.uber.org/zap"

	"github.com/google/uuid"

	"github.com/chd-flightcore/lidar-core/internal/geometry"
)

// LogPublisher implements Publisher by writing structured log lines only. It
// is the only Publisher this module ships — a real autopilot link is a host
// concern, kept out per the flight-controller-telemetry-link non-goal.
type LogPublisher struct {
	logger *zap.SugaredLogger
}

// NewLogPublisher builds a LogPublisher. A nil logger is replaced with a
// no-op one so callers never need a nil check.
func NewLogPublisher(logger *zap.SugaredLogger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishVelocity(frameID uuid.UUID, cmd VelocityCommand) error {
	p.logger.Infow("velocity command",
		"frame_id", frameID,
		"type_mask", cmd.TypeMask,
		"vel", [3]float32{cmd.VelX, cmd.VelY, cmd.VelZ},
		"yaw_rate", cmd.YawRate,
	)
	return nil
}

func (p *LogPublisher) PublishPath(frameID uuid.UUID, path []geometry.Vector3) error {
	p.logger.Infow("planned path",
		"frame_id", frameID,
		"waypoints", len(path),
	)
	return nil
}
