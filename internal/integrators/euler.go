package integrators

import (
	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// SymplecticEuler is the semi-implicit Euler scheme: velocity is kicked
// first and the new velocity drifts the position.
//
//	v(t+dt) = v(t) + a(t)·dt
//	p(t+dt) = p(t) + v(t+dt)·dt
type SymplecticEuler struct{}

func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

func (e *SymplecticEuler) Name() string { return "symplectic_euler" }

func (e *SymplecticEuler) Step(u *dynamo.Universe, dt float64) error {
	if err := dynamo.CheckTimestep(dt); err != nil {
		return err
	}
	for i := range u.Positions {
		u.Velocities[i] = r3.Add(u.Velocities[i], r3.Scale(dt, u.Accelerations[i]))
		u.Positions[i] = r3.Add(u.Positions[i], r3.Scale(dt, u.Velocities[i]))
	}
	return nil
}

// Euler is the explicit forward scheme, drifting with the old velocity.
// It gains energy on closed orbits and is kept for comparison runs.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(u *dynamo.Universe, dt float64) error {
	if err := dynamo.CheckTimestep(dt); err != nil {
		return err
	}
	for i := range u.Positions {
		u.Positions[i] = r3.Add(u.Positions[i], r3.Scale(dt, u.Velocities[i]))
		u.Velocities[i] = r3.Add(u.Velocities[i], r3.Scale(dt, u.Accelerations[i]))
	}
	return nil
}
