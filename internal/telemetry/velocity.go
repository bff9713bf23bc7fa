// Package telemetry owns the VelocityCommand wire model and the logging
// publisher that stands in for a real autopilot link.
package telemetry

import (
	"github.com/google/uuid"

	"github.com/chd-flightcore/lidar-core/internal/geometry"
)

// Type mask values. In the MAVLink SET_POSITION_TARGET_LOCAL_NED layout this
// command mirrors, bits 0-8, 10 and 11 are "ignore this field" flags.
// TypeMaskYawRateOnly sets every one of them except yaw rate's.
// TypeMaskVelocityOnly sets only bit 9 and no ignore flag; the commands built
// with it carry velocity as their only non-zero setpoint.
const (
	TypeMaskVelocityOnly uint16 = 0b0000001000000000
	TypeMaskYawRateOnly  uint16 = 0b0000010111111111
)

// VelocityCommand is the fixed-shape autopilot message the core emits: it
// carries every field of the MAVLink local-frame setpoint even though a
// given emission only fills in the ones its type mask marks authoritative.
// Byte-level wire serialization belongs to the host's link layer, not here.
type VelocityCommand struct {
	BootTimeMillis  uint32
	TargetSystem    uint8
	TargetComp      uint8
	CoordinateFrame uint8

	TypeMask uint16

	PosX, PosY, PosZ float32
	VelX, VelY, VelZ float32
	AccX, AccY, AccZ float32

	Yaw     float32
	YawRate float32
}

// ZeroVelocity returns the authoritative-velocity command with every
// velocity component at zero, used whenever a planner has nothing to react
// to.
func ZeroVelocity() VelocityCommand {
	return VelocityCommand{TypeMask: TypeMaskVelocityOnly}
}

// FromFRDVelocity builds a velocity-authoritative command from a velocity
// vector already expressed in the autopilot's FRD frame.
func FromFRDVelocity(v geometry.Vector3) VelocityCommand {
	return VelocityCommand{
		TypeMask: TypeMaskVelocityOnly,
		VelX:     v.X,
		VelY:     v.Y,
		VelZ:     v.Z,
	}
}

// YawSpin builds the "spin in place" fallback command used when the nearest
// obstacle's direction is degenerate.
func YawSpin(yawRate float32) VelocityCommand {
	return VelocityCommand{TypeMask: TypeMaskYawRateOnly, YawRate: yawRate}
}

// Publisher is the boundary between the core and whatever carries
// VelocityCommand/Path values onward — a real autopilot link, a test spy, or
// (as shipped here) structured logs. Wire transports are a host concern: the
// only implementation in this module is LogPublisher.
type Publisher interface {
	PublishVelocity(frameID uuid.UUID, cmd VelocityCommand) error
	PublishPath(frameID uuid.UUID, path []geometry.Vector3) error
}
