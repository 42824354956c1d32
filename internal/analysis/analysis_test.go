package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/physics"
)

func kepler() *dynamo.Universe {
	u := dynamo.NewUniverse(2)
	u.Masses[0], u.Masses[1] = 1e30, 1e24
	u.Positions[1] = r3.Vec{X: 1e11}
	u.Velocities[1] = r3.Vec{Y: physics.CircularVelocity(physics.G, 1e30+1e24, 1e11)}
	physics.ToBarycentricFrame(u)
	return u
}

func build() (dynamo.ForceEvaluator, dynamo.Integrator) {
	return physics.NewDirect(physics.G, physics.Separation{}), integrators.NewSymplecticEuler()
}

func TestDominantPeriod_Sine(t *testing.T) {
	const n, cycles, interval = 256, 4, 10.0
	data := make([]float64, n)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*cycles*float64(i)/n)
	}

	period, ok := DominantPeriod(data, interval)
	if !ok {
		t.Fatal("expected a period")
	}
	want := n * interval / cycles
	if math.Abs(period-want) > 1e-9*want {
		t.Errorf("period = %g, want %g", period, want)
	}
}

func TestDominantPeriod_Degenerate(t *testing.T) {
	g := NewWithT(t)

	_, ok := DominantPeriod([]float64{1}, 1)
	g.Expect(ok).To(BeFalse())

	_, ok = DominantPeriod([]float64{2, 2, 2, 2, 2, 2}, 1)
	g.Expect(ok).To(BeFalse())

	_, ok = DominantPeriod([]float64{0, 1, 0, -1}, 0)
	g.Expect(ok).To(BeFalse())
}

func TestDominantPeriod_KeplerOrbit(t *testing.T) {
	u := kepler()
	period := physics.OrbitalPeriod(physics.G, 1e30+1e24, 1e11)

	const perOrbit, orbits = 2000, 4
	dt := period / perOrbit
	ev, integ := build()

	var states []dynamo.Snapshot
	for k := 0; k < perOrbit*orbits; k++ {
		if k%20 == 0 {
			states = append(states, u.Snapshot(k, float64(k)*dt))
		}
		if err := ev.Evaluate(u); err != nil {
			t.Fatal(err)
		}
		if err := integ.Step(u, dt); err != nil {
			t.Fatal(err)
		}
	}

	uniform, interval := Uniform(states)
	if len(uniform) != len(states) {
		t.Fatalf("expected all %d samples uniform, got %d", len(states), len(uniform))
	}

	xs := RelativeSeries(uniform, u.Masses, 1, AxisX)
	got, ok := DominantPeriod(xs, interval)
	if !ok {
		t.Fatal("expected a period")
	}
	if math.Abs(got-period)/period > 0.02 {
		t.Errorf("period = %g, want %g", got, period)
	}
}

func TestUniform_DropsOffGridTail(t *testing.T) {
	states := []dynamo.Snapshot{{Time: 0}, {Time: 10}, {Time: 20}, {Time: 25}}
	got, interval := Uniform(states)
	g := NewWithT(t)
	g.Expect(got).To(HaveLen(3))
	g.Expect(interval).To(Equal(10.0))
}

func TestLyapunovExponent_RegularOrbit(t *testing.T) {
	u := kepler()
	period := physics.OrbitalPeriod(physics.G, 1e30+1e24, 1e11)

	lambda, err := LyapunovExponent(context.Background(), u, build, 1, period/2000, period, 1e3)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(lambda)*period > 10 {
		t.Errorf("exponent %g too large for a circular orbit", lambda)
	}
	if u.Positions[1].X == 0 {
		t.Error("base universe should be left untouched")
	}
}

func TestLyapunovExponent_Errors(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	u := kepler()

	_, err := LyapunovExponent(ctx, u, build, 5, 1, 10, 1)
	g.Expect(err).To(HaveOccurred())

	_, err = LyapunovExponent(ctx, u, build, 1, 1, 10, 0)
	g.Expect(err).To(HaveOccurred())

	_, err = LyapunovExponent(ctx, u, build, 1, 0, 10, 1)
	g.Expect(errors.Is(err, dynamo.ErrInvalidTimestep)).To(BeTrue())

	coincident := kepler()
	coincident.Positions[1] = coincident.Positions[0]
	_, err = LyapunovExponent(ctx, coincident, build, 1, 1, 10, 1)
	g.Expect(errors.Is(err, dynamo.ErrSingularity)).To(BeTrue())
}
