package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent simulators concurrently. Each simulator must
// own its own universe, evaluator and integrator.
type Ensemble struct {
	sims    []*Simulator
	workers int
}

func NewEnsemble(workers int, sims ...*Simulator) *Ensemble {
	return &Ensemble{sims: sims, workers: workers}
}

func (e *Ensemble) Add(s *Simulator) { e.sims = append(e.sims, s) }

// Run returns one result per simulator in insertion order, or the first error.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.sims))

	g, ctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}

	for i, s := range e.sims {
		i, s := i, s
		g.Go(func() error {
			r, err := s.Run(ctx)
			results[i] = r
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
