package sim

import (
	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Result is the recorded outcome of a run. States holds every
// RecordEvery-th snapshot plus the initial and final ones.
type Result struct {
	Times         []float64
	States        []dynamo.Snapshot
	Metrics       map[string]float64
	StepsTaken    int
	Elapsed       float64
	EnergyDrift   float64
	MomentumDrift float64
}

// Final returns the last recorded snapshot.
func (r *Result) Final() dynamo.Snapshot {
	if len(r.States) == 0 {
		return dynamo.Snapshot{}
	}
	return r.States[len(r.States)-1]
}

// Positions returns the recorded positions of body i in time order.
func (r *Result) Positions(i int) []r3.Vec {
	out := make([]r3.Vec, 0, len(r.States))
	for _, s := range r.States {
		if i < len(s.Positions) {
			out = append(out, s.Positions[i])
		}
	}
	return out
}
