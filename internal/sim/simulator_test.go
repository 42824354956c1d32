package sim_test

import (
	"context"
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gravsim/internal/clock"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

// keplerPair places m2 on a circular orbit of radius r around m1 in the
// barycentric frame.
func keplerPair(m1, m2, r float64) *dynamo.Universe {
	u := dynamo.NewUniverse(2)
	u.Masses[0], u.Masses[1] = m1, m2
	u.Positions[1] = r3.Vec{X: r}
	v := physics.CircularVelocity(physics.G, m1+m2, r)
	u.Velocities[1] = r3.Vec{Y: v}
	physics.ToBarycentricFrame(u)
	return u
}

func cluster(n int, seed int64) *dynamo.Universe {
	rng := rand.New(rand.NewSource(seed))
	u := dynamo.NewUniverse(n)
	for i := 0; i < n; i++ {
		u.Masses[i] = 1e24 * (1 + 50*rng.Float64())
		u.Positions[i] = r3.Vec{X: rng.NormFloat64() * 1e11, Y: rng.NormFloat64() * 1e11, Z: rng.NormFloat64() * 1e10}
		u.Velocities[i] = r3.Vec{X: rng.NormFloat64() * 1e3, Y: rng.NormFloat64() * 1e3}
	}
	return u
}

func newFixed(u *dynamo.Universe, dt, threshold float64, opts ...sim.Option) *sim.Simulator {
	return sim.New(u,
		physics.NewDirect(physics.G, physics.Separation{}),
		integrators.NewSymplecticEuler(),
		clock.New(clock.Fixed{Dt: dt}, threshold),
		opts...,
	)
}

type recorder struct {
	snaps []dynamo.Snapshot
}

func (r *recorder) OnStep(s dynamo.Snapshot) { r.snaps = append(r.snaps, s) }

var _ = Describe("Simulator", func() {
	ctx := context.Background()

	Describe("two-body Kepler orbit", func() {
		const m1, m2, r = 1e30, 1e24, 1e11

		It("returns to its starting relative position after one period", func() {
			u := keplerPair(m1, m2, r)
			start := r3.Sub(u.Positions[1], u.Positions[0])

			period := physics.OrbitalPeriod(physics.G, m1+m2, r)
			const steps = 20000
			dt := period / steps

			s := newFixed(u, dt, period)
			e0 := physics.TotalEnergy(u, physics.G, physics.Separation{})
			for i := 0; i < steps; i++ {
				Expect(s.Step(dt)).To(Succeed())
			}

			end := r3.Sub(u.Positions[1], u.Positions[0])
			Expect(r3.Norm(r3.Sub(end, start))).To(BeNumerically("<", 0.01*r))

			e1 := physics.TotalEnergy(u, physics.G, physics.Separation{})
			Expect(math.Abs(e1-e0) / math.Abs(e0)).To(BeNumerically("<", 5e-3))
		})

		It("keeps the separation close to circular through the orbit", func() {
			u := keplerPair(m1, m2, r)
			period := physics.OrbitalPeriod(physics.G, m1+m2, r)
			s := newFixed(u, period/5000, period, sim.WithRecordEvery(100))

			result, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			for _, snap := range result.States {
				sep := r3.Norm(r3.Sub(snap.Positions[1], snap.Positions[0]))
				Expect(math.Abs(sep-r) / r).To(BeNumerically("<", 0.02))
			}
		})
	})

	It("conserves total momentum under fixed steps", func() {
		u := cluster(8, 4)
		p0 := physics.Momentum(u)
		s := newFixed(u, 3600, 3600*2000)

		result, err := s.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.StepsTaken).To(Equal(2000))

		p1 := physics.Momentum(u)
		scale := 0.0
		for i, v := range u.Velocities {
			scale += u.Masses[i] * r3.Norm(v)
		}
		Expect(r3.Norm(r3.Sub(p1, p0))).To(BeNumerically("<", 1e-10*scale))
		Expect(result.MomentumDrift).To(BeNumerically("<", 1e-10))
	})

	It("moves a single body in a straight line", func() {
		u := dynamo.NewUniverse(1)
		u.Masses[0] = 5.972e24
		u.Positions[0] = r3.Vec{X: 1, Y: 2, Z: 3}
		u.Velocities[0] = r3.Vec{X: 10, Y: -4, Z: 0.5}

		s := newFixed(u, 0.5, 100)
		_, err := s.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(u.Accelerations[0]).To(Equal(r3.Vec{}))
		Expect(u.Velocities[0]).To(Equal(r3.Vec{X: 10, Y: -4, Z: 0.5}))
		want := r3.Vec{X: 1 + 1000, Y: 2 - 400, Z: 3 + 50}
		Expect(r3.Norm(r3.Sub(u.Positions[0], want))).To(BeNumerically("<", 1e-9))
	})

	It("is bit-for-bit deterministic under the fixed policy", func() {
		base := cluster(12, 9)

		run := func() *sim.Result {
			s := newFixed(base.Clone(), 7200, 7200*500, sim.WithRecordEvery(50))
			r, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			return r
		}

		a, b := run(), run()
		Expect(a.Times).To(Equal(b.Times))
		Expect(a.States).To(Equal(b.States))
	})

	It("rejects non-positive timesteps without touching state", func() {
		u := cluster(3, 1)
		before := u.Clone()
		s := newFixed(u, 1, 10)

		for _, dt := range []float64{0, -1} {
			err := s.Step(dt)
			Expect(errors.Is(err, dynamo.ErrInvalidTimestep)).To(BeTrue())
			var te *dynamo.InvalidTimestepError
			Expect(errors.As(err, &te)).To(BeTrue())
		}
		Expect(u.Positions).To(Equal(before.Positions))
		Expect(u.Velocities).To(Equal(before.Velocities))
		Expect(s.Clock().Elapsed()).To(BeZero())
	})

	It("aborts with a misconfigured fixed clock", func() {
		s := newFixed(cluster(3, 1), 0, 10)
		_, err := s.Run(ctx)
		Expect(errors.Is(err, dynamo.ErrInvalidTimestep)).To(BeTrue())
	})

	It("aborts on coincident bodies and reports the step", func() {
		u := cluster(4, 2)
		u.Positions[2] = u.Positions[0]
		s := newFixed(u, 1, 10)

		_, err := s.Run(ctx)
		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Step).To(Equal(0))
		Expect(errors.Is(err, dynamo.ErrSingularity)).To(BeTrue())
	})

	It("survives coincident bodies when softened", func() {
		u := cluster(4, 2)
		u.Positions[2] = u.Positions[0]
		s := sim.New(u,
			physics.NewDirect(physics.G, physics.Separation{Softening: 1e9}),
			integrators.NewSymplecticEuler(),
			clock.New(clock.Fixed{Dt: 60}, 600),
		)
		_, err := s.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
	})

	It("hands observers independent snapshots after every step", func() {
		u := cluster(3, 5)
		s := newFixed(u, 10, 50)
		rec := &recorder{}
		s.AddObserver(rec)

		_, err := s.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.snaps).To(HaveLen(5))
		Expect(rec.snaps[4].Step).To(Equal(5))
		Expect(rec.snaps[4].Time).To(BeNumerically("~", 50, 1e-9))

		rec.snaps[4].Positions[0] = r3.Vec{}
		Expect(u.Positions[0]).NotTo(Equal(r3.Vec{}))
	})

	It("records the initial, strided and final states", func() {
		s := newFixed(cluster(2, 3), 1, 25, sim.WithRecordEvery(10))
		result, err := s.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Times).To(Equal([]float64{0, 10, 20, 25}))
		Expect(result.Final().Step).To(Equal(25))
		Expect(result.Positions(1)).To(HaveLen(4))
	})

	It("stops when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		s := newFixed(cluster(2, 3), 1, 1000)
		_, err := s.Run(cctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(s.StepCount()).To(BeZero())
	})

	It("agrees across evaluators and runs them as an ensemble", func() {
		base := cluster(20, 13)
		mk := func(ev dynamo.ForceEvaluator) *sim.Simulator {
			return sim.New(base.Clone(), ev, integrators.NewSymplecticEuler(), clock.New(clock.Fixed{Dt: 3600}, 3600*50))
		}

		ens := sim.NewEnsemble(2,
			mk(physics.NewDirect(physics.G, physics.Separation{})),
			mk(physics.NewParallelDirect(physics.G, physics.Separation{}, 4)),
			mk(physics.NewBarnesHut(physics.G, 0, physics.Separation{})),
		)
		results, err := ens.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))

		ref := results[0].Final().Positions
		for _, r := range results[1:] {
			for i, p := range r.Final().Positions {
				Expect(r3.Norm(r3.Sub(p, ref[i]))).To(BeNumerically("<", 1e-6*r3.Norm(ref[i])+1))
			}
		}
	})
})
