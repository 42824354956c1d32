package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

func all() []dynamo.Integrator {
	return []dynamo.Integrator{NewSymplecticEuler(), NewEuler(), NewLeapfrog()}
}

func oneBody(p, v, a r3.Vec) *dynamo.Universe {
	u := dynamo.NewUniverse(1)
	u.Masses[0] = 1
	u.Positions[0], u.Velocities[0], u.Accelerations[0] = p, v, a
	return u
}

func TestInvalidTimestep(t *testing.T) {
	for _, integ := range all() {
		for _, dt := range []float64{0, -0.5, math.NaN(), math.Inf(1)} {
			u := oneBody(r3.Vec{X: 1}, r3.Vec{Y: 2}, r3.Vec{Z: 3})
			before := u.Clone()

			err := integ.Step(u, dt)
			var te *dynamo.InvalidTimestepError
			if !errors.As(err, &te) || !errors.Is(err, dynamo.ErrInvalidTimestep) {
				t.Errorf("%s dt=%v: expected InvalidTimestepError, got %v", integ.Name(), dt, err)
			}
			if u.Positions[0] != before.Positions[0] || u.Velocities[0] != before.Velocities[0] {
				t.Errorf("%s dt=%v: state changed on rejected step", integ.Name(), dt)
			}
		}
	}
}

func TestSymplecticEulerOrdering(t *testing.T) {
	u := oneBody(r3.Vec{X: 1}, r3.Vec{X: 2}, r3.Vec{X: 4})
	if err := NewSymplecticEuler().Step(u, 0.5); err != nil {
		t.Fatal(err)
	}
	// v = 2 + 4·0.5 = 4; p = 1 + 4·0.5 = 3
	if u.Velocities[0].X != 4 {
		t.Errorf("velocity = %g, want 4", u.Velocities[0].X)
	}
	if u.Positions[0].X != 3 {
		t.Errorf("position = %g, want 3 (new velocity must drive the drift)", u.Positions[0].X)
	}
}

func TestExplicitEulerOrdering(t *testing.T) {
	u := oneBody(r3.Vec{X: 1}, r3.Vec{X: 2}, r3.Vec{X: 4})
	if err := NewEuler().Step(u, 0.5); err != nil {
		t.Fatal(err)
	}
	if u.Velocities[0].X != 4 || u.Positions[0].X != 2 {
		t.Errorf("got p=%g v=%g, want p=2 v=4", u.Positions[0].X, u.Velocities[0].X)
	}
}

func TestLeapfrogHalfKicks(t *testing.T) {
	l := NewLeapfrog()
	u := oneBody(r3.Vec{}, r3.Vec{}, r3.Vec{X: 2})

	if err := l.Step(u, 1); err != nil {
		t.Fatal(err)
	}
	// first kick is half a step: v = 1, p = 1
	if u.Velocities[0].X != 1 || u.Positions[0].X != 1 {
		t.Errorf("after step 1: p=%g v=%g", u.Positions[0].X, u.Velocities[0].X)
	}

	if err := l.Step(u, 1); err != nil {
		t.Fatal(err)
	}
	// constant acceleration: full kick, v = 3, p = 4 = a·t²/2 exactly
	if u.Velocities[0].X != 3 || u.Positions[0].X != 4 {
		t.Errorf("after step 2: p=%g v=%g", u.Positions[0].X, u.Velocities[0].X)
	}

	l.Reset()
	u2 := oneBody(r3.Vec{}, r3.Vec{}, r3.Vec{X: 2})
	if err := l.Step(u2, 1); err != nil {
		t.Fatal(err)
	}
	if u2.Velocities[0].X != 1 {
		t.Errorf("Reset did not drop the pending half kick: v=%g", u2.Velocities[0].X)
	}
}

func TestZeroAccelerationIsStraightLine(t *testing.T) {
	for _, integ := range all() {
		u := oneBody(r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: -1, Y: 0.5, Z: 2}, r3.Vec{})
		for i := 0; i < 100; i++ {
			if err := integ.Step(u, 0.25); err != nil {
				t.Fatal(err)
			}
		}
		want := r3.Vec{X: 1 - 25, Y: 2 + 12.5, Z: 3 + 50}
		if r3.Norm(r3.Sub(u.Positions[0], want)) > 1e-9 {
			t.Errorf("%s: position %v, want %v", integ.Name(), u.Positions[0], want)
		}
	}
}
