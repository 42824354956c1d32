package physics

import (
	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Direct is the exact serial pairwise evaluator. Each unordered pair is
// visited once and both bodies receive their contribution, so the pair
// forces cancel exactly in the total momentum.
type Direct struct {
	G   float64
	Sep Separation

	scratch []r3.Vec
}

func NewDirect(g float64, sep Separation) *Direct {
	return &Direct{G: g, Sep: sep}
}

func (d *Direct) Name() string { return "direct" }

func (d *Direct) Evaluate(u *dynamo.Universe) error {
	n := u.Len()
	if len(u.Positions) != n || len(u.Accelerations) != n {
		return dynamo.ErrDimensionMismatch
	}
	if len(d.scratch) != n {
		d.scratch = make([]r3.Vec, n)
	}
	acc := d.scratch
	for i := range acc {
		acc[i] = r3.Vec{}
	}

	pos, masses := u.Positions, u.Masses

	for i := 0; i < n; i++ {
		pi := pos[i]

		for j := i + 1; j < n; j++ {
			r := r3.Sub(pos[j], pi)

			inv, ok := d.Sep.invCube(r3.Norm2(r))
			if !ok {
				return &dynamo.SingularityError{I: i, J: j}
			}

			acc[i] = r3.Add(acc[i], r3.Scale(d.G*masses[j]*inv, r))
			acc[j] = r3.Sub(acc[j], r3.Scale(d.G*masses[i]*inv, r))
		}
	}

	copy(u.Accelerations, acc)
	return nil
}

// accelerationOn sums the pull of every other body on body i in index
// order. It is the per-body reduction shared by the parallel evaluator.
func accelerationOn(i int, pos []r3.Vec, masses []float64, g float64, sep Separation) (r3.Vec, error) {
	var a r3.Vec
	pi := pos[i]

	for j := range pos {
		if j == i {
			continue
		}
		r := r3.Sub(pos[j], pi)

		inv, ok := sep.invCube(r3.Norm2(r))
		if !ok {
			lo, hi := i, j
			if hi < lo {
				lo, hi = hi, lo
			}
			return r3.Vec{}, &dynamo.SingularityError{I: lo, J: hi}
		}
		a = r3.Add(a, r3.Scale(g*masses[j]*inv, r))
	}

	return a, nil
}

func (d *Direct) Energy(u *dynamo.Universe) float64 {
	return TotalEnergy(u, d.G, d.Sep)
}
