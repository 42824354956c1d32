package physics

import (
	"fmt"
	"math"
)

// G is the gravitational constant in m³/(kg·s²).
const G = 6.67408e-11

// Separation decides how near-zero separations enter the force law.
// The zero value rejects coincident bodies.
type Separation struct {
	// Softening ε replaces r² with r² + ε².
	Softening float64
	// MinSeparation d replaces r with max(r, d).
	MinSeparation float64
}

func (s Separation) Validate() error {
	if s.Softening < 0 || math.IsNaN(s.Softening) {
		return fmt.Errorf("softening must be non-negative, got %g", s.Softening)
	}
	if s.MinSeparation < 0 || math.IsNaN(s.MinSeparation) {
		return fmt.Errorf("minimum separation must be non-negative, got %g", s.MinSeparation)
	}
	if s.Softening > 0 && s.MinSeparation > 0 {
		return fmt.Errorf("softening and minimum separation are mutually exclusive")
	}
	return nil
}

// Rejects reports whether coincident bodies are an error under this policy.
func (s Separation) Rejects() bool {
	return s.Softening <= 0 && s.MinSeparation <= 0
}

func (s Separation) String() string {
	switch {
	case s.Softening > 0:
		return fmt.Sprintf("softening(%g)", s.Softening)
	case s.MinSeparation > 0:
		return fmt.Sprintf("min-separation(%g)", s.MinSeparation)
	default:
		return "reject"
	}
}

// invCube returns the factor k such that the pull along r_vec is
// G·m·k·r_vec, i.e. 1/r³ for the plain law, for the squared separation r2.
// ok is false only for a coincident pair under the reject policy.
func (s Separation) invCube(r2 float64) (k float64, ok bool) {
	switch {
	case s.Softening > 0:
		r2 += s.Softening * s.Softening
	case s.MinSeparation > 0:
		// r_vec is zero, so the pair has no direction to pull along.
		if r2 == 0 {
			return 0, true
		}
		if d2 := s.MinSeparation * s.MinSeparation; r2 < d2 {
			return 1.0 / (math.Sqrt(r2) * d2), true
		}
	case r2 == 0:
		return 0, false
	}

	rInv := 1.0 / math.Sqrt(r2)
	return rInv * rInv * rInv, true
}

// potential returns φ such that the pair energy is -G·mᵢ·mⱼ·φ for the
// squared separation r2, so that the force in invCube is -dU/dr. Inside the
// minimum separation the force has constant magnitude, so φ grows linearly
// and stays continuous at r = d. A coincident pair under the reject policy
// yields +Inf.
func (s Separation) potential(r2 float64) float64 {
	switch {
	case s.Softening > 0:
		return 1 / math.Sqrt(r2+s.Softening*s.Softening)
	case s.MinSeparation > 0:
		d, r := s.MinSeparation, math.Sqrt(r2)
		if r < d {
			return 1/d + (d-r)/(d*d)
		}
		return 1 / r
	default:
		return 1 / math.Sqrt(r2)
	}
}
