package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/gravsim/internal/clock"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/physics"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Simulator owns one universe and drives it through
// evaluate → integrate → advance clock until the clock is done.
type Simulator struct {
	u           *dynamo.Universe
	evaluator   dynamo.ForceEvaluator
	integrator  dynamo.Integrator
	clock       *clock.Clock
	metrics     []dynamo.Metric
	observers   []dynamo.Observer
	log         *zap.Logger
	recordEvery int
	validate    bool
	step        int
}

type Option func(*Simulator)

func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

// WithRecordEvery keeps every n-th snapshot in the Result.
func WithRecordEvery(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.recordEvery = n
		}
	}
}

// WithValidation toggles the NaN/Inf check after every step.
func WithValidation(on bool) Option {
	return func(s *Simulator) { s.validate = on }
}

func New(u *dynamo.Universe, ev dynamo.ForceEvaluator, integ dynamo.Integrator, clk *clock.Clock, opts ...Option) *Simulator {
	s := &Simulator{
		u:           u,
		evaluator:   ev,
		integrator:  integ,
		clock:       clk,
		metrics:     make([]dynamo.Metric, 0),
		observers:   make([]dynamo.Observer, 0),
		log:         zap.NewNop(),
		recordEvery: 1,
		validate:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Universe exposes the live state. Callers must treat it as read-only;
// observers get copies through Snapshot instead.
func (s *Simulator) Universe() *dynamo.Universe { return s.u }
func (s *Simulator) Clock() *clock.Clock        { return s.clock }
func (s *Simulator) StepCount() int             { return s.step }

func (s *Simulator) Evaluator() dynamo.ForceEvaluator { return s.evaluator }
func (s *Simulator) Integrator() dynamo.Integrator    { return s.integrator }

// Step advances the universe by dt. Accelerations are fully evaluated before
// the integrator reads them. On error the run must be abandoned.
func (s *Simulator) Step(dt float64) error {
	if err := dynamo.CheckTimestep(dt); err != nil {
		return s.wrap(err)
	}
	if err := s.evaluator.Evaluate(s.u); err != nil {
		return s.wrap(err)
	}
	if err := s.integrator.Step(s.u, dt); err != nil {
		return s.wrap(err)
	}
	if s.validate && !s.u.IsValid() {
		return s.wrap(dynamo.ErrUnstable)
	}

	s.clock.Advance(dt)
	s.step++

	t := s.clock.Elapsed()
	for _, m := range s.metrics {
		m.Observe(s.u, t)
	}
	if len(s.observers) > 0 {
		snap := s.u.Snapshot(s.step, t)
		for _, obs := range s.observers {
			obs.OnStep(snap)
		}
	}
	return nil
}

// Advance draws the next dt from the clock and performs one step. It
// reports whether the clock has reached its threshold.
func (s *Simulator) Advance() (done bool, err error) {
	if s.clock.Done() {
		return true, nil
	}
	dt, err := s.clock.Next()
	if err != nil {
		return false, s.wrap(err)
	}
	if err := s.Step(dt); err != nil {
		return false, err
	}
	return s.clock.Done(), nil
}

// Run steps until the clock is done or ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	if err := s.u.Validate(); err != nil {
		return nil, err
	}

	expected := 0
	if f, ok := s.clock.Policy.(clock.Fixed); ok && f.Dt > 0 {
		expected = int(math.Ceil(s.clock.Remaining()/f.Dt)) / s.recordEvery
	}
	result := &Result{
		Times:   make([]float64, 0, expected+2),
		States:  make([]dynamo.Snapshot, 0, expected+2),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
		m.Observe(s.u, s.clock.Elapsed())
	}

	initialEnergy := s.computeEnergy()
	initialMomentum := physics.Momentum(s.u)
	momentumScale := momentumMagnitudeSum(s.u)

	s.record(result)

	s.log.Info("simulation started",
		zap.Int("bodies", s.u.Len()),
		zap.String("evaluator", s.evaluator.Name()),
		zap.String("integrator", s.integrator.Name()),
		zap.String("policy", s.clock.Policy.Name()),
		zap.Float64("threshold_s", s.clock.Threshold),
	)

	for !s.clock.Done() {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if _, err := s.Advance(); err != nil {
			s.log.Error("simulation aborted", zap.Int("step", s.step), zap.Error(err))
			return result, err
		}
		result.StepsTaken++

		if s.step%s.recordEvery == 0 {
			s.record(result)
			s.log.Debug("progress",
				zap.Int("step", s.step),
				zap.Float64("elapsed_s", s.clock.Elapsed()),
			)
		}
	}

	if s.step%s.recordEvery != 0 {
		s.record(result)
	}

	result.Elapsed = s.clock.Elapsed()
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(s.computeEnergy()-initialEnergy) / math.Abs(initialEnergy)
	}
	if momentumScale != 0 {
		result.MomentumDrift = r3.Norm(r3.Sub(physics.Momentum(s.u), initialMomentum)) / momentumScale
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.log.Info("simulation finished",
		zap.Int("steps", result.StepsTaken),
		zap.Float64("elapsed_s", result.Elapsed),
		zap.Float64("energy_drift", result.EnergyDrift),
		zap.Float64("momentum_drift", result.MomentumDrift),
	)

	return result, nil
}

func (s *Simulator) record(r *Result) {
	t := s.clock.Elapsed()
	r.Times = append(r.Times, t)
	r.States = append(r.States, s.u.Snapshot(s.step, t))
}

func (s *Simulator) computeEnergy() float64 {
	if h, ok := s.evaluator.(dynamo.Hamiltonian); ok {
		return h.Energy(s.u)
	}
	return 0
}

func (s *Simulator) wrap(err error) error {
	return &dynamo.SimulationError{Step: s.step, Time: s.clock.Elapsed(), Wrapped: err}
}

// momentumMagnitudeSum is Σ mᵢ|vᵢ|, the scale against which momentum drift
// is measured (the total momentum itself is often zero).
func momentumMagnitudeSum(u *dynamo.Universe) float64 {
	sum := 0.0
	for i, v := range u.Velocities {
		sum += u.Masses[i] * r3.Norm(v)
	}
	return sum
}

func (s *Simulator) String() string {
	return fmt.Sprintf("%s/%s/%s n=%d", s.evaluator.Name(), s.integrator.Name(), s.clock.Policy.Name(), s.u.Len())
}
