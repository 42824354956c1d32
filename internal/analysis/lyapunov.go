package analysis

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/clock"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/sim"
)

// Build returns a fresh evaluator and integrator. It is called once per
// trajectory so stateful integrators are never shared.
type Build func() (dynamo.ForceEvaluator, dynamo.Integrator)

// LyapunovExponent estimates the largest Lyapunov exponent (1/s) by
// following base and a copy whose body is displaced by perturbation meters
// along x. The phase-space distance is measured on positions and the copy is
// pulled back to the reference distance every step.
func LyapunovExponent(ctx context.Context, base *dynamo.Universe, build Build, body int, dt, duration, perturbation float64) (float64, error) {
	if body < 0 || body >= base.Len() {
		return 0, fmt.Errorf("body %d out of range", body)
	}
	if !(perturbation > 0) {
		return 0, fmt.Errorf("perturbation must be positive, got %g", perturbation)
	}
	if err := dynamo.CheckTimestep(dt); err != nil {
		return 0, err
	}

	ref := base.Clone()
	pert := base.Clone()
	pert.Positions[body].X += perturbation

	newSim := func(u *dynamo.Universe) *sim.Simulator {
		ev, integ := build()
		return sim.New(u, ev, integ, clock.New(clock.Fixed{Dt: dt}, duration))
	}
	a, b := newSim(ref), newSim(pert)

	steps := int(duration / dt)
	if steps < 1 {
		return 0, fmt.Errorf("duration %g shorter than one step of %g", duration, dt)
	}

	sumLog := 0.0
	for k := 0; k < steps; k++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := a.Step(dt); err != nil {
			return 0, err
		}
		if err := b.Step(dt); err != nil {
			return 0, err
		}

		d := separation(ref, pert)
		if d == 0 {
			continue
		}
		sumLog += math.Log(d / perturbation)

		scale := perturbation / d
		for i := range pert.Positions {
			pert.Positions[i] = r3.Add(ref.Positions[i], r3.Scale(scale, r3.Sub(pert.Positions[i], ref.Positions[i])))
			pert.Velocities[i] = r3.Add(ref.Velocities[i], r3.Scale(scale, r3.Sub(pert.Velocities[i], ref.Velocities[i])))
		}
	}

	return sumLog / (float64(steps) * dt), nil
}

func separation(a, b *dynamo.Universe) float64 {
	sum := 0.0
	for i := range a.Positions {
		sum += r3.Norm2(r3.Sub(a.Positions[i], b.Positions[i]))
	}
	return math.Sqrt(sum)
}
