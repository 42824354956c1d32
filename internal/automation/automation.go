package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
)

// Batch is a scripted list of runs loaded from YAML. Each run starts from a
// preset (or the defaults) and overlays its own config block:
//
//	name: integrator study
//	runs:
//	  - name: euler
//	    preset: kepler
//	    config:
//	      integrator: euler
type Batch struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Runs        []BatchRun `yaml:"runs"`
}

type BatchRun struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Config yaml.Node `yaml:"config"`
}

// Resolve builds the effective config of a run.
func (r *BatchRun) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if r.Preset != "" {
		cfg = config.GetPreset(r.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", r.Preset)
		}
	}
	if !r.Config.IsZero() {
		if err := r.Config.Decode(cfg); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.Name, err)
		}
	}
	return cfg, cfg.Validate()
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBatch(data)
}

func ParseBatch(data []byte) (*Batch, error) {
	var batch Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, err
	}
	if len(batch.Runs) == 0 {
		return nil, fmt.Errorf("batch %q has no runs", batch.Name)
	}
	return &batch, nil
}

type Outcome struct {
	Name   string
	RunID  string
	Result *sim.Result
}

// RunBatch executes every run in order and stores each result. It stops at
// the first failing run and returns the outcomes completed so far.
func RunBatch(ctx context.Context, batch *Batch, st *storage.Store, log *zap.Logger) ([]Outcome, error) {
	if log == nil {
		log = zap.NewNop()
	}
	outcomes := make([]Outcome, 0, len(batch.Runs))

	for i := range batch.Runs {
		run := &batch.Runs[i]
		log.Info("batch run", zap.Int("index", i+1), zap.Int("total", len(batch.Runs)), zap.String("name", run.Name))

		cfg, err := run.Resolve()
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}

		exp := experiment.New(cfg, log)
		if err := exp.Setup(); err != nil {
			return outcomes, fmt.Errorf("run %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}

		runID, err := st.Save(cfg, exp.Initial(), result)
		if err != nil {
			return outcomes, fmt.Errorf("run %d save: %w", i+1, err)
		}

		outcomes = append(outcomes, Outcome{Name: run.Name, RunID: runID, Result: result})
	}

	return outcomes, nil
}

type SweepResult struct {
	Dt            float64
	Steps         int
	EnergyDrift   float64
	MomentumDrift float64
}

// RunSweep runs base once per fixed timestep, concurrently, and reports the
// conservation error of each.
func RunSweep(ctx context.Context, base *config.Config, dts []float64, workers int) ([]SweepResult, error) {
	ensemble := sim.NewEnsemble(workers)
	for _, dt := range dts {
		cfg := *base
		cfg.TimestepPolicy = config.PolicyFixed
		cfg.FixedDt = dt

		exp := experiment.New(&cfg, nil)
		if err := exp.Setup(); err != nil {
			return nil, fmt.Errorf("dt=%g: %w", dt, err)
		}
		ensemble.Add(exp.GetSimulator())
	}

	results, err := ensemble.Run(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, len(results))
	for i, r := range results {
		out[i] = SweepResult{
			Dt:            dts[i],
			Steps:         r.StepsTaken,
			EnergyDrift:   r.EnergyDrift,
			MomentumDrift: r.MomentumDrift,
		}
	}
	return out, nil
}

type MonteCarloConfig struct {
	Base *config.Config
	// Perturbation is the relative jitter applied to every position and
	// velocity component.
	Perturbation float64
	Trials       int
	// EscapeRadius bounds a stable trial. Zero uses ten times the initial
	// extent of the universe.
	EscapeRadius float64
	Seed         int64
	Workers      int
}

type MonteCarloResult struct {
	Trial       int
	Bounded     float64
	Stable      bool
	EnergyDrift float64
}

// RunMonteCarlo perturbs the base universe Trials times and reports which
// trials stayed bounded for the whole run.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig) ([]MonteCarloResult, error) {
	base, err := experiment.LoadUniverse(mc.Base)
	if err != nil {
		return nil, err
	}

	radius := mc.EscapeRadius
	if radius <= 0 {
		radius = 10 * extent(base.Positions)
	}

	rng := rand.New(rand.NewSource(mc.Seed))
	jitter := func(v r3.Vec) r3.Vec {
		return r3.Vec{
			X: v.X * (1 + (rng.Float64()-0.5)*2*mc.Perturbation),
			Y: v.Y * (1 + (rng.Float64()-0.5)*2*mc.Perturbation),
			Z: v.Z * (1 + (rng.Float64()-0.5)*2*mc.Perturbation),
		}
	}

	ensemble := sim.NewEnsemble(mc.Workers)
	bounds := make([]*metrics.Boundedness, mc.Trials)
	for trial := 0; trial < mc.Trials; trial++ {
		u := base.Clone()
		for i := range u.Positions {
			u.Positions[i] = jitter(u.Positions[i])
			u.Velocities[i] = jitter(u.Velocities[i])
		}

		exp := experiment.New(mc.Base, nil)
		if err := exp.SetupWith(u); err != nil {
			return nil, err
		}
		bounds[trial] = metrics.NewBoundedness(radius)
		exp.GetSimulator().AddMetric(bounds[trial])
		ensemble.Add(exp.GetSimulator())
	}

	results, err := ensemble.Run(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MonteCarloResult, len(results))
	for i, r := range results {
		b := bounds[i].Value()
		out[i] = MonteCarloResult{
			Trial:       i,
			Bounded:     b,
			Stable:      b == 1,
			EnergyDrift: r.EnergyDrift,
		}
	}
	return out, nil
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

func extent(positions []r3.Vec) float64 {
	var center r3.Vec
	for _, p := range positions {
		center = r3.Add(center, p)
	}
	center = r3.Scale(1/float64(len(positions)), center)

	far := 0.0
	for _, p := range positions {
		far = math.Max(far, r3.Norm(r3.Sub(p, center)))
	}
	if far == 0 {
		return 1
	}
	return far
}
