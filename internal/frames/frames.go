// Package frames implements the pure coordinate conversions used to move
// points between the sensor, world-render, and autopilot body frames.
package frames

import "github.com/chd-flightcore/lidar-core/internal/geometry"

// Mid360ToBevy converts a point from the sensor's native frame (mid360:
// X-forward, Y-left, Z-up) to the world-render frame.
func Mid360ToBevy(v geometry.Vector3) geometry.Vector3 {
	return geometry.Vector3{X: -v.Y, Y: v.Z, Z: -v.X}
}

// BevyToMid360 is the inverse of Mid360ToBevy.
func BevyToMid360(v geometry.Vector3) geometry.Vector3 {
	return geometry.Vector3{X: -v.Z, Y: -v.X, Z: v.Y}
}

// Mid360ToFRD converts a point from the sensor frame to the autopilot's
// Forward-Right-Down body frame.
func Mid360ToFRD(v geometry.Vector3) geometry.Vector3 {
	return geometry.Vector3{X: v.X, Y: -v.Y, Z: -v.Z}
}

// FRDToBevy converts a point from the autopilot FRD frame to the world-render
// frame.
func FRDToBevy(v geometry.Vector3) geometry.Vector3 {
	return geometry.Vector3{X: v.Y, Y: -v.Z, Z: -v.X}
}
