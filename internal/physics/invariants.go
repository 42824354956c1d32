package physics

import (
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

func KineticEnergy(u *dynamo.Universe) float64 {
	ke := 0.0
	for i, v := range u.Velocities {
		ke += 0.5 * u.Masses[i] * r3.Norm2(v)
	}
	return ke
}

// PotentialEnergy returns the pairwise gravitational potential under sep.
// A coincident pair under the reject policy yields -Inf.
func PotentialEnergy(u *dynamo.Universe, g float64, sep Separation) float64 {
	pe := 0.0
	n := u.Len()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			phi := sep.potential(r3.Norm2(r3.Sub(u.Positions[j], u.Positions[i])))
			if math.IsInf(phi, 1) {
				return math.Inf(-1)
			}
			pe -= g * u.Masses[i] * u.Masses[j] * phi
		}
	}
	return pe
}

func TotalEnergy(u *dynamo.Universe, g float64, sep Separation) float64 {
	return KineticEnergy(u) + PotentialEnergy(u, g, sep)
}

// Momentum returns Σ mᵢvᵢ.
func Momentum(u *dynamo.Universe) r3.Vec {
	var p r3.Vec
	for i, v := range u.Velocities {
		p = r3.Add(p, r3.Scale(u.Masses[i], v))
	}
	return p
}

// AngularMomentum returns Σ mᵢ (rᵢ × vᵢ) about the origin.
func AngularMomentum(u *dynamo.Universe) r3.Vec {
	var l r3.Vec
	for i, v := range u.Velocities {
		l = r3.Add(l, r3.Scale(u.Masses[i], r3.Cross(u.Positions[i], v)))
	}
	return l
}

func TotalMass(u *dynamo.Universe) float64 {
	m := 0.0
	for _, mi := range u.Masses {
		m += mi
	}
	return m
}

// CenterOfMass returns the barycentre position and velocity.
func CenterOfMass(u *dynamo.Universe) (pos, vel r3.Vec) {
	m := TotalMass(u)
	if m == 0 {
		return
	}
	for i := range u.Masses {
		pos = r3.Add(pos, r3.Scale(u.Masses[i], u.Positions[i]))
		vel = r3.Add(vel, r3.Scale(u.Masses[i], u.Velocities[i]))
	}
	return r3.Scale(1/m, pos), r3.Scale(1/m, vel)
}

// ToBarycentricFrame shifts positions and velocities so the centre of mass
// sits at rest at the origin.
func ToBarycentricFrame(u *dynamo.Universe) {
	pos, vel := CenterOfMass(u)
	for i := range u.Positions {
		u.Positions[i] = r3.Sub(u.Positions[i], pos)
		u.Velocities[i] = r3.Sub(u.Velocities[i], vel)
	}
}

// CircularVelocity is the relative speed of a circular orbit of radius r
// around total mass m.
func CircularVelocity(g, m, r float64) float64 {
	return math.Sqrt(g * m / r)
}

// OrbitalPeriod is Kepler's third law for semi-major axis a around total mass m.
func OrbitalPeriod(g, m, a float64) float64 {
	return 2 * math.Pi * math.Sqrt(a*a*a/(g*m))
}
