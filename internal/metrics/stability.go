package metrics

import (
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Boundedness is the fraction of samples in which every body stays within
// radius of the barycentre. 1.0 means nothing ever escaped.
type Boundedness struct {
	name       string
	radius     float64
	violations int
	samples    int
}

func NewBoundedness(radius float64) *Boundedness {
	return &Boundedness{
		name:   "bounded",
		radius: radius,
	}
}

func (b *Boundedness) Name() string {
	return b.name
}

func (b *Boundedness) Observe(u *dynamo.Universe, t float64) {
	b.samples++
	com, _ := physics.CenterOfMass(u)
	for _, p := range u.Positions {
		if r3.Norm(r3.Sub(p, com)) > b.radius {
			b.violations++
			break
		}
	}
}

func (b *Boundedness) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Boundedness) Reset() {
	b.violations = 0
	b.samples = 0
}

// Defaults returns the metrics recorded for every run.
func Defaults(ev dynamo.ForceEvaluator, escapeRadius float64) []dynamo.Metric {
	ms := []dynamo.Metric{NewMomentumDrift(), NewAngularMomentumDrift()}
	if h, ok := ev.(dynamo.Hamiltonian); ok {
		ms = append(ms, NewEnergyDrift(h))
	}
	if escapeRadius > 0 {
		ms = append(ms, NewBoundedness(escapeRadius))
	}
	return ms
}
