package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Universe holds every body of a run as parallel slices indexed by body.
// Index i names the same body in every slice for the whole run.
type Universe struct {
	Positions     []r3.Vec
	Velocities    []r3.Vec
	Accelerations []r3.Vec
	Masses        []float64

	// Display attributes, carried through for the visualization layer.
	Colors [][3]float64
	Sizes  []float64
}

// NewUniverse allocates a universe of n bodies with zeroed state.
func NewUniverse(n int) *Universe {
	return &Universe{
		Positions:     make([]r3.Vec, n),
		Velocities:    make([]r3.Vec, n),
		Accelerations: make([]r3.Vec, n),
		Masses:        make([]float64, n),
		Colors:        make([][3]float64, n),
		Sizes:         make([]float64, n),
	}
}

func (u *Universe) Len() int { return len(u.Masses) }

// Validate checks the structural invariants: equal lengths, positive finite
// masses and finite kinematics.
func (u *Universe) Validate() error {
	n := len(u.Masses)
	if len(u.Positions) != n || len(u.Velocities) != n || len(u.Accelerations) != n ||
		len(u.Colors) != n || len(u.Sizes) != n {
		return ErrDimensionMismatch
	}
	for i, m := range u.Masses {
		if !(m > 0) || math.IsInf(m, 0) {
			return &InvalidDataError{Body: i, Reason: "mass must be positive and finite"}
		}
		if !finite(u.Positions[i]) || !finite(u.Velocities[i]) {
			return &InvalidDataError{Body: i, Reason: "position and velocity must be finite"}
		}
	}
	return nil
}

// IsValid reports whether all kinematic state is finite.
func (u *Universe) IsValid() bool {
	for i := range u.Positions {
		if !finite(u.Positions[i]) || !finite(u.Velocities[i]) {
			return false
		}
	}
	return true
}

func (u *Universe) Clone() *Universe {
	c := &Universe{
		Positions:     append([]r3.Vec(nil), u.Positions...),
		Velocities:    append([]r3.Vec(nil), u.Velocities...),
		Accelerations: append([]r3.Vec(nil), u.Accelerations...),
		Masses:        append([]float64(nil), u.Masses...),
		Colors:        append([][3]float64(nil), u.Colors...),
		Sizes:         append([]float64(nil), u.Sizes...),
	}
	return c
}

// Snapshot copies the kinematic state at the given step and time.
func (u *Universe) Snapshot(step int, t float64) Snapshot {
	return Snapshot{
		Step:       step,
		Time:       t,
		Positions:  append([]r3.Vec(nil), u.Positions...),
		Velocities: append([]r3.Vec(nil), u.Velocities...),
	}
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Snapshot is a read-only copy of the kinematic state after a completed step.
type Snapshot struct {
	Step       int
	Time       float64
	Positions  []r3.Vec
	Velocities []r3.Vec
}

// ForceEvaluator overwrites u.Accelerations from u.Positions and u.Masses.
// It must not modify positions or velocities, and must leave accelerations
// untouched when it returns an error.
type ForceEvaluator interface {
	Name() string
	Evaluate(u *Universe) error
}

// Integrator advances velocities and positions by dt from the accelerations
// already stored in u.
type Integrator interface {
	Name() string
	Step(u *Universe, dt float64) error
}

// Hamiltonian is implemented by evaluators that can report the total energy
// consistent with their force law.
type Hamiltonian interface {
	Energy(u *Universe) float64
}

type Observer interface {
	OnStep(s Snapshot)
}

type Metric interface {
	Name() string
	Observe(u *Universe, t float64)
	Value() float64
	Reset()
}

// CheckTimestep returns an InvalidTimestepError for dt <= 0 or non-finite dt.
func CheckTimestep(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return &InvalidTimestepError{Dt: dt}
	}
	return nil
}
