package physics

import (
	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// minChunk is the smallest number of bodies worth handing to a worker.
const minChunk = 16

// ParallelDirect computes the exact sum with bodies partitioned by index.
// Workers only read positions and masses; results land in a scratch slice
// that is published after every worker has finished.
type ParallelDirect struct {
	G       float64
	Sep     Separation
	Workers int

	scratch []r3.Vec
}

func NewParallelDirect(g float64, sep Separation, workers int) *ParallelDirect {
	return &ParallelDirect{G: g, Sep: sep, Workers: workers}
}

func (p *ParallelDirect) Name() string { return "parallel" }

func (p *ParallelDirect) Evaluate(u *dynamo.Universe) error {
	n := u.Len()
	if len(u.Positions) != n || len(u.Accelerations) != n {
		return dynamo.ErrDimensionMismatch
	}
	if len(p.scratch) != n {
		p.scratch = make([]r3.Vec, n)
	}

	pos, masses, acc := u.Positions, u.Masses, p.scratch

	// Workers race to the first error, so report the pair here instead.
	if p.Sep.Rejects() {
		if i, j, found := coincident(pos); found {
			return &dynamo.SingularityError{I: i, J: j}
		}
	}

	err := dynamo.ParallelFor(n, p.Workers, minChunk, func(start, end int) error {
		for i := start; i < end; i++ {
			a, err := accelerationOn(i, pos, masses, p.G, p.Sep)
			if err != nil {
				return err
			}
			acc[i] = a
		}
		return nil
	})
	if err != nil {
		return err
	}

	copy(u.Accelerations, acc)
	return nil
}

func (p *ParallelDirect) Energy(u *dynamo.Universe) float64 {
	return TotalEnergy(u, p.G, p.Sep)
}
