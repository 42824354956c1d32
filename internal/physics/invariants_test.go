package physics

import (
	"math"
	"testing"

	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestEnergy(t *testing.T) {
	u := dynamo.NewUniverse(2)
	u.Masses[0], u.Masses[1] = 2, 3
	u.Positions[1] = r3.Vec{X: 4}
	u.Velocities[0] = r3.Vec{Y: 1}
	u.Velocities[1] = r3.Vec{Z: -2}

	if ke := KineticEnergy(u); ke != 0.5*2*1+0.5*3*4 {
		t.Errorf("kinetic energy = %g", ke)
	}
	if pe := PotentialEnergy(u, 1, Separation{}); math.Abs(pe-(-6.0/4)) > 1e-15 {
		t.Errorf("potential energy = %g, want -1.5", pe)
	}
	if pe := PotentialEnergy(u, 1, Separation{Softening: 3}); math.Abs(pe-(-6.0/5)) > 1e-15 {
		t.Errorf("softened potential energy = %g, want -1.2", pe)
	}

	u.Positions[1] = u.Positions[0]
	if pe := PotentialEnergy(u, 1, Separation{}); !math.IsInf(pe, -1) {
		t.Errorf("coincident potential = %g, want -Inf", pe)
	}
}

func TestMomentumAndBarycentre(t *testing.T) {
	u := dynamo.NewUniverse(2)
	u.Masses[0], u.Masses[1] = 1, 3
	u.Positions[0] = r3.Vec{X: -3}
	u.Positions[1] = r3.Vec{X: 1, Y: 4}
	u.Velocities[0] = r3.Vec{Y: 3}
	u.Velocities[1] = r3.Vec{Y: -1, Z: 2}

	if p := Momentum(u); p != (r3.Vec{Y: 0, Z: 6}) {
		t.Errorf("momentum = %v", p)
	}

	pos, vel := CenterOfMass(u)
	if pos != (r3.Vec{X: 0, Y: 3}) {
		t.Errorf("centre of mass = %v", pos)
	}
	if vel != (r3.Vec{Z: 1.5}) {
		t.Errorf("centre of mass velocity = %v", vel)
	}

	ToBarycentricFrame(u)
	pos, vel = CenterOfMass(u)
	if r3.Norm(pos) > 1e-12 || r3.Norm(vel) > 1e-12 {
		t.Errorf("barycentric frame not at rest: %v %v", pos, vel)
	}
}

func TestAngularMomentum(t *testing.T) {
	u := dynamo.NewUniverse(1)
	u.Masses[0] = 2
	u.Positions[0] = r3.Vec{X: 3}
	u.Velocities[0] = r3.Vec{Y: 5}
	if l := AngularMomentum(u); l != (r3.Vec{Z: 30}) {
		t.Errorf("angular momentum = %v, want (0,0,30)", l)
	}
}

func TestKeplerHelpers(t *testing.T) {
	// Earth around the Sun: ~29.8 km/s and ~365.25 days.
	const msun, au = 1.989e30, 1.496e11
	v := CircularVelocity(G, msun, au)
	if math.Abs(v-29780) > 100 {
		t.Errorf("circular velocity = %g m/s", v)
	}
	days := OrbitalPeriod(G, msun, au) / 86400
	if math.Abs(days-365.25) > 1 {
		t.Errorf("orbital period = %g days", days)
	}
}

func TestMinSeparationPotentialMatchesForce(t *testing.T) {
	sep := Separation{MinSeparation: 1}

	pair := func(r float64) *dynamo.Universe {
		u := dynamo.NewUniverse(2)
		u.Masses[0], u.Masses[1] = 1, 1
		u.Positions[1] = r3.Vec{X: r}
		return u
	}

	// continuous at r = d
	inside := PotentialEnergy(pair(1-1e-9), 1, sep)
	outside := PotentialEnergy(pair(1+1e-9), 1, sep)
	if math.Abs(inside-outside) > 1e-8 {
		t.Errorf("potential jumps at the minimum separation: %g vs %g", inside, outside)
	}

	// -dU/dr equals the constant pull G·m/d² inside d
	const h = 1e-6
	slope := (PotentialEnergy(pair(0.5+h), 1, sep) - PotentialEnergy(pair(0.5-h), 1, sep)) / (2 * h)
	if math.Abs(slope-1) > 1e-6 {
		t.Errorf("dU/dr = %g, want 1", slope)
	}
}

func TestMinSeparationConservesEnergy(t *testing.T) {
	sep := Separation{MinSeparation: 1}
	ev := NewDirect(1, sep)

	u := dynamo.NewUniverse(2)
	u.Masses[0], u.Masses[1] = 1, 1
	u.Positions[1] = r3.Vec{X: 0.5}

	e0 := ev.Energy(u)
	const dt = 1e-3
	for k := 0; k < 200; k++ {
		if err := ev.Evaluate(u); err != nil {
			t.Fatal(err)
		}
		for i := range u.Positions {
			u.Velocities[i] = r3.Add(u.Velocities[i], r3.Scale(dt, u.Accelerations[i]))
			u.Positions[i] = r3.Add(u.Positions[i], r3.Scale(dt, u.Velocities[i]))
		}
	}

	if sepNow := u.Positions[1].X - u.Positions[0].X; sepNow >= 0.5 || sepNow <= 0 {
		t.Fatalf("pair should have closed in while staying apart, separation %g", sepNow)
	}
	if ke := KineticEnergy(u); ke < 0.01 {
		t.Fatalf("pair gained almost no kinetic energy: %g", ke)
	}
	if drift := math.Abs(ev.Energy(u)-e0) / math.Abs(e0); drift > 1e-3 {
		t.Errorf("energy drift %g inside the minimum separation", drift)
	}
}
