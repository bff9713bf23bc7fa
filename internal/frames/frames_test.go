package frames

import (
	"testing"

	"github.com/chd-flightcore/lidar-core/internal/geometry"
)

func approxEqual(a, b geometry.Vector3, eps float32) bool {
	return abs(a.X-b.X) <= eps && abs(a.Y-b.Y) <= eps && abs(a.Z-b.Z) <= eps
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestMid360BevyRoundTrip(t *testing.T) {
	points := []geometry.Vector3{
		{X: 1, Y: 2, Z: 3},
		{X: -4.5, Y: 0, Z: 7.1},
		{X: 0, Y: 0, Z: 0},
	}
	for _, p := range points {
		got := BevyToMid360(Mid360ToBevy(p))
		if !approxEqual(got, p, 1e-5) {
			t.Errorf("round trip mid360->bevy->mid360: got %+v, want %+v", got, p)
		}
	}
}

func TestMid360FRDRoundTrip(t *testing.T) {
	points := []geometry.Vector3{
		{X: 1, Y: 2, Z: 3},
		{X: -4.5, Y: 0, Z: 7.1},
	}
	for _, p := range points {
		frd := Mid360ToFRD(p)
		got := Mid360ToFRD(frd) // the map is its own inverse
		if !approxEqual(got, p, 1e-5) {
			t.Errorf("round trip mid360->FRD->mid360: got %+v, want %+v", got, p)
		}
	}
}

func TestMid360ToFRDSign(t *testing.T) {
	got := Mid360ToFRD(geometry.Vector3{X: 1, Y: 2, Z: 3})
	want := geometry.Vector3{X: 1, Y: -2, Z: -3}
	if got != want {
		t.Errorf("Mid360ToFRD = %+v, want %+v", got, want)
	}
}
