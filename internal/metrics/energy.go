package metrics

import (
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// EnergyDrift tracks the largest relative deviation of the total energy
// from its first observed value.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
	h             dynamo.Hamiltonian
}

func NewEnergyDrift(h dynamo.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		h:    h,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(u *dynamo.Universe, t float64) {
	energy := e.h.Energy(u)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Current() float64 { return e.currentEnergy }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift tracks the largest change of total linear momentum,
// relative to Σ mᵢ|vᵢ| at the first sample.
type MomentumDrift struct {
	initial  r3.Vec
	scale    float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{}
}

func (m *MomentumDrift) Name() string { return "momentum_drift" }

func (m *MomentumDrift) Observe(u *dynamo.Universe, t float64) {
	p := physics.Momentum(u)
	if m.samples == 0 {
		m.initial = p
		for i, v := range u.Velocities {
			m.scale += u.Masses[i] * r3.Norm(v)
		}
	}
	m.samples++

	if m.scale > 0 {
		m.maxDrift = math.Max(m.maxDrift, r3.Norm(r3.Sub(p, m.initial))/m.scale)
	}
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = r3.Vec{}
	m.scale = 0
	m.maxDrift = 0
	m.samples = 0
}

// AngularMomentumDrift tracks the largest relative change of Σ mᵢ(rᵢ × vᵢ).
type AngularMomentumDrift struct {
	initial  r3.Vec
	maxDrift float64
	samples  int
}

func NewAngularMomentumDrift() *AngularMomentumDrift {
	return &AngularMomentumDrift{}
}

func (a *AngularMomentumDrift) Name() string { return "angular_momentum_drift" }

func (a *AngularMomentumDrift) Observe(u *dynamo.Universe, t float64) {
	l := physics.AngularMomentum(u)
	if a.samples == 0 {
		a.initial = l
	}
	a.samples++

	if norm := r3.Norm(a.initial); norm > 0 {
		a.maxDrift = math.Max(a.maxDrift, r3.Norm(r3.Sub(l, a.initial))/norm)
	}
}

func (a *AngularMomentumDrift) Value() float64 { return a.maxDrift }

func (a *AngularMomentumDrift) Reset() {
	a.initial = r3.Vec{}
	a.maxDrift = 0
	a.samples = 0
}
