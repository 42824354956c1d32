package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/gravsim/internal/clock"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/scenario"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/universe"
)

// Experiment turns a validated Config into a ready-to-run Simulator.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	log       *zap.Logger
	initial   *dynamo.Universe
	simulator *sim.Simulator
}

func New(cfg *config.Config, log *zap.Logger) *Experiment {
	if log == nil {
		log = zap.NewNop()
	}
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		log:      log,
	}
}

// LoadUniverse reads the universe file if one is configured, otherwise
// generates the configured scenario.
func LoadUniverse(cfg *config.Config) (*dynamo.Universe, error) {
	if cfg.Universe != "" {
		return universe.Load(cfg.Universe)
	}
	return scenario.Generate(cfg.Scenario, cfg.Bodies, cfg.Seed)
}

func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	u, err := LoadUniverse(e.cfg)
	if err != nil {
		return err
	}
	return e.SetupWith(u)
}

// SetupWith builds the simulator around an already loaded universe.
func (e *Experiment) SetupWith(u *dynamo.Universe) error {
	ev, err := e.registry.GetEvaluator(e.cfg.Evaluator, e.cfg)
	if err != nil {
		return err
	}
	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}
	policy, err := e.registry.GetPolicy(e.cfg.TimestepPolicy, e.cfg)
	if err != nil {
		return err
	}

	e.initial = u.Clone()
	e.simulator = sim.New(u, ev, integ, clock.New(policy, e.cfg.Threshold),
		sim.WithLogger(e.log.With(zap.String("source", e.cfg.Source()))),
		sim.WithRecordEvery(e.cfg.RecordEvery),
	)
	for _, m := range e.registry.DefaultMetrics(e.cfg, ev) {
		e.simulator.AddMetric(m)
	}

	e.log.Debug("experiment ready",
		zap.Int("bodies", u.Len()),
		zap.String("evaluator", ev.Name()),
		zap.String("integrator", integ.Name()),
		zap.String("policy", policy.Name()),
	)
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx)
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Initial returns a copy of the universe as it was before the first step.
func (e *Experiment) Initial() *dynamo.Universe { return e.initial }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
