package integrators

import (
	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Leapfrog is kick-drift-kick leapfrog folded into one force evaluation per
// step. The closing half kick of a step is applied at the start of the next
// one, once the accelerations at the new positions are known, so velocities
// observed between steps lead the positions by half a step.
type Leapfrog struct {
	pendingDt float64
	n         int
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Name() string { return "leapfrog" }

func (l *Leapfrog) Step(u *dynamo.Universe, dt float64) error {
	if err := dynamo.CheckTimestep(dt); err != nil {
		return err
	}
	if l.n != u.Len() {
		l.pendingDt = 0
		l.n = u.Len()
	}

	kick := 0.5 * (l.pendingDt + dt)
	for i := range u.Positions {
		u.Velocities[i] = r3.Add(u.Velocities[i], r3.Scale(kick, u.Accelerations[i]))
		u.Positions[i] = r3.Add(u.Positions[i], r3.Scale(dt, u.Velocities[i]))
	}

	l.pendingDt = dt
	return nil
}

// Reset drops the carried half kick, e.g. before reusing the integrator on
// a fresh universe of the same size.
func (l *Leapfrog) Reset() {
	l.pendingDt = 0
	l.n = 0
}
