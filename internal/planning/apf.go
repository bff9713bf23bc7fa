package planning

import (
	"fmt"

	"github.com/chd-flightcore/lidar-core/internal/geometry"
)

// ApfErrorKind classifies why APFPlanner.Plan failed to reach the goal.
type ApfErrorKind int

// ApfErrorKind values.
const (
	// LocalMinimum means the combined attractive and repulsive force had a
	// magnitude below geometry.Epsilon before the goal was reached. The test
	// is a tolerance check, not an exact-zero comparison.
	LocalMinimum ApfErrorKind = iota
	// MaxStepsReached means the step budget was exhausted.
	MaxStepsReached
)

func (k ApfErrorKind) String() string {
	if k == LocalMinimum {
		return "local_minimum"
	}
	return "max_steps_reached"
}

// ApfError reports that the planner produced no path. Per the core's
// failure-visible control plane, this is returned to the caller, which can
// fall back to AvoidanceController.
type ApfError struct {
	Kind ApfErrorKind
}

func (e *ApfError) Error() string {
	return fmt.Sprintf("apf planner: %s", e.Kind)
}

// ApfConfig holds the tunables of the potential field: an attractive gain
// pulling toward the goal, a repulsive gain and influence radius pushing
// away from nearby obstacles, a step size, a goal-radius epsilon, and a step
// budget.
type ApfConfig struct {
	KAtt     float32
	KRep     float32
	D0       float32
	StepSize float32
	Epsilon  float32
	MaxSteps int
}

// DefaultApfConfig returns the documented defaults.
func DefaultApfConfig() ApfConfig {
	return ApfConfig{
		KAtt:     2.5,
		KRep:     2.5,
		D0:       0.7,
		StepSize: 0.1,
		Epsilon:  0.1,
		MaxSteps: 500,
	}
}

// ObstacleSource answers "what obstacles lie within radius of center",
// decoupling APFPlanner from any particular occupancy representation —
// pkg/core wires this to the rtreego-backed spatialindex.Index; it ships no
// linear-scan implementation.
type ObstacleSource interface {
	ObstaclesWithin(center geometry.Vector3, radius float32) []geometry.Vector3
}

// APFPlanner runs the artificial-potential-field search described in §4.6:
// an attractive force toward the goal, a classical inverse-square repulsive
// force away from nearby obstacles, iterated until the goal is reached or
// the step budget is exhausted.
type APFPlanner struct {
	config ApfConfig
}

// NewAPFPlanner builds a planner with the given configuration.
func NewAPFPlanner(config ApfConfig) *APFPlanner {
	return &APFPlanner{config: config}
}

// Plan searches from start to goal against source, which the planner treats
// as a single frozen snapshot borrowed for the duration of this call — it is
// queried once per iteration but never mutated or replaced mid-search.
func (p *APFPlanner) Plan(start, goal geometry.Vector3, source ObstacleSource) ([]geometry.Vector3, error) {
	cfg := p.config
	current := start
	path := []geometry.Vector3{start}

	for steps := 0; ; steps++ {
		if current.Distance(goal) <= cfg.Epsilon {
			return path, nil
		}
		if steps >= cfg.MaxSteps {
			return nil, &ApfError{Kind: MaxStepsReached}
		}

		attractive := goal.Sub(current).Scale(cfg.KAtt)

		repulsive := geometry.Vector3{}
		for _, obstacle := range source.ObstaclesWithin(current, cfg.D0) {
			d := current.Distance(obstacle)
			if d <= 0 || d > cfg.D0 {
				continue
			}
			coeff := cfg.KRep * (1/d - 1/cfg.D0) * (1 / (d * d))
			repulsive = repulsive.Add(current.Sub(obstacle).Scale(coeff))
		}

		total := attractive.Add(repulsive)
		if total.IsZero() {
			return nil, &ApfError{Kind: LocalMinimum}
		}

		dir, _ := total.Normalize()
		current = current.Add(dir.Scale(cfg.StepSize))
		path = append(path, current)
	}
}
