package scenario

import (
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/gravsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestGenerateAll(t *testing.T) {
	for _, name := range List() {
		t.Run(name, func(t *testing.T) {
			g := NewWithT(t)
			u, err := Generate(name, 16, 1)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(u.Validate()).To(Succeed())

			p := physics.Momentum(u)
			scale := 0.0
			for i, v := range u.Velocities {
				scale += u.Masses[i] * r3.Norm(v)
			}
			g.Expect(r3.Norm(p)).To(BeNumerically("<=", 1e-12*scale+1e-30))

			for _, c := range u.Colors {
				for _, ch := range c {
					g.Expect(ch).To(BeNumerically(">=", 0))
					g.Expect(ch).To(BeNumerically("<=", 1))
				}
			}
		})
	}
}

func TestGenerateUnknown(t *testing.T) {
	if _, err := Generate("hyperbolic", 0, 0); err == nil {
		t.Error("expected error for unknown scenario")
	}
}

func TestKeplerIsCircular(t *testing.T) {
	u := Kepler(0, 0)
	rel := r3.Sub(u.Positions[1], u.Positions[0])
	vrel := r3.Sub(u.Velocities[1], u.Velocities[0])

	want := physics.CircularVelocity(physics.G, SolarMass+EarthMass, AU)
	if math.Abs(r3.Norm(rel)-AU)/AU > 1e-12 {
		t.Errorf("separation = %g, want %g", r3.Norm(rel), AU)
	}
	if math.Abs(r3.Norm(vrel)-want)/want > 1e-12 {
		t.Errorf("relative speed = %g, want %g", r3.Norm(vrel), want)
	}
	if r3.Dot(rel, vrel) > 1e-6*r3.Norm(rel)*r3.Norm(vrel) {
		t.Error("velocity should be perpendicular to the radius")
	}
}

func TestRingDeterministic(t *testing.T) {
	a, b := Ring(24, 3), Ring(24, 3)
	if a.Len() != 24 {
		t.Fatalf("expected 24 bodies, got %d", a.Len())
	}
	for i := range a.Positions {
		if a.Positions[i] != b.Positions[i] {
			t.Fatalf("body %d differs between runs with equal seeds", i)
		}
	}
}

func TestInnerPlanetsOrder(t *testing.T) {
	u := InnerPlanets(0, 0)
	if u.Len() != 5 {
		t.Fatalf("expected 5 bodies, got %d", u.Len())
	}
	if u.Masses[0] != SolarMass {
		t.Errorf("expected the sun first")
	}
	prev := 0.0
	for i := 1; i < u.Len(); i++ {
		r := r3.Norm(r3.Sub(u.Positions[i], u.Positions[0]))
		if r <= prev {
			t.Errorf("planet %d at %g is not beyond planet %d", i, r, i-1)
		}
		prev = r
	}
}
