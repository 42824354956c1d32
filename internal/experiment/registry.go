package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/gravsim/internal/clock"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/physics"
)

type Registry struct {
	evaluators  map[string]func(*config.Config) dynamo.ForceEvaluator
	integrators map[string]func() dynamo.Integrator
	policies    map[string]func(*config.Config) clock.Policy
}

func NewRegistry() *Registry {
	r := &Registry{
		evaluators:  make(map[string]func(*config.Config) dynamo.ForceEvaluator),
		integrators: make(map[string]func() dynamo.Integrator),
		policies:    make(map[string]func(*config.Config) clock.Policy),
	}

	r.evaluators["direct"] = func(c *config.Config) dynamo.ForceEvaluator {
		return physics.NewDirect(c.G, separation(c))
	}
	r.evaluators["parallel"] = func(c *config.Config) dynamo.ForceEvaluator {
		return physics.NewParallelDirect(c.G, separation(c), c.Workers)
	}
	r.evaluators["barneshut"] = func(c *config.Config) dynamo.ForceEvaluator {
		return physics.NewBarnesHut(c.G, c.Theta, separation(c))
	}

	r.integrators["symplectic_euler"] = func() dynamo.Integrator { return integrators.NewSymplecticEuler() }
	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["leapfrog"] = func() dynamo.Integrator { return integrators.NewLeapfrog() }

	r.policies[config.PolicyFixed] = func(c *config.Config) clock.Policy {
		return clock.Fixed{Dt: c.FixedDt}
	}
	r.policies[config.PolicyRealTime] = func(c *config.Config) clock.Policy {
		return clock.NewRealTime(c.SpeedUp, c.PacingInterval)
	}

	return r
}

func separation(c *config.Config) physics.Separation {
	return physics.Separation{Softening: c.Softening, MinSeparation: c.MinSeparation}
}

func (r *Registry) GetEvaluator(name string, cfg *config.Config) (dynamo.ForceEvaluator, error) {
	fn, ok := r.evaluators[name]
	if !ok {
		return nil, fmt.Errorf("unknown evaluator: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetPolicy(name string, cfg *config.Config) (clock.Policy, error) {
	fn, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("unknown timestep policy: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) ListEvaluators() []string  { return sortedKeys(r.evaluators) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(cfg *config.Config, ev dynamo.ForceEvaluator) []dynamo.Metric {
	return metrics.Defaults(ev, cfg.EscapeRadius)
}
