package physics

import (
	"fmt"

	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultTheta is the customary Barnes-Hut opening angle.
const DefaultTheta = 0.5

// BarnesHut approximates the pairwise sum with an octree. Theta is the
// opening angle: cells whose size/distance ratio is below Theta are treated
// as a single mass at their centre. Theta == 0 evaluates the exact sum.
type BarnesHut struct {
	G     float64
	Theta float64
	Sep   Separation

	bodies    []body
	particles []barneshut.Particle3
	scratch   []r3.Vec
	fallback  Direct
}

type body struct {
	u *dynamo.Universe
	i int
}

func (b *body) Coord3() r3.Vec { return b.u.Positions[b.i] }
func (b *body) Mass() float64  { return b.u.Masses[b.i] }

func NewBarnesHut(g, theta float64, sep Separation) *BarnesHut {
	return &BarnesHut{G: g, Theta: theta, Sep: sep}
}

func (bh *BarnesHut) Name() string { return "barneshut" }

func (bh *BarnesHut) bind(u *dynamo.Universe) {
	n := u.Len()
	if len(bh.bodies) == n && n > 0 && bh.bodies[0].u == u {
		return
	}
	bh.bodies = make([]body, n)
	bh.particles = make([]barneshut.Particle3, n)
	bh.scratch = make([]r3.Vec, n)
	for i := range bh.bodies {
		bh.bodies[i] = body{u: u, i: i}
		bh.particles[i] = &bh.bodies[i]
	}
}

func (bh *BarnesHut) Evaluate(u *dynamo.Universe) error {
	n := u.Len()
	if len(u.Positions) != n || len(u.Accelerations) != n {
		return dynamo.ErrDimensionMismatch
	}

	// The octree cannot separate coincident particles.
	if i, j, found := coincident(u.Positions); found {
		if bh.Sep.Rejects() {
			return &dynamo.SingularityError{I: i, J: j}
		}
		bh.fallback.G, bh.fallback.Sep = bh.G, bh.Sep
		return bh.fallback.Evaluate(u)
	}

	bh.bind(u)

	vol := barneshut.Volume{Particles: bh.particles}
	if bh.Theta > 0 {
		if err := vol.Reset(); err != nil {
			return fmt.Errorf("barnes-hut: build octree: %w", err)
		}
	}

	for i, p := range bh.particles {
		bh.scratch[i] = vol.ForceOn(p, bh.Theta, bh.accel)
	}

	copy(u.Accelerations, bh.scratch)
	return nil
}

func (bh *BarnesHut) Energy(u *dynamo.Universe) float64 {
	return TotalEnergy(u, bh.G, bh.Sep)
}

// accel is a barneshut.Force3 that yields acceleration rather than force:
// the receiving mass m1 cancels out. v points from p1 to the source.
func (bh *BarnesHut) accel(p1, p2 barneshut.Particle3, m1, m2 float64, v r3.Vec) r3.Vec {
	if p1 == p2 {
		return r3.Vec{}
	}
	inv, _ := bh.Sep.invCube(r3.Norm2(v))
	return r3.Scale(bh.G*m2*inv, v)
}

// coincident reports the lowest-index pair (ordered by i, then j) of bodies
// sharing exactly the same position, the pair the serial loop meets first.
func coincident(pos []r3.Vec) (i, j int, found bool) {
	seen := make(map[r3.Vec]int, len(pos))
	for k, p := range pos {
		first, ok := seen[p]
		if !ok {
			seen[p] = k
			continue
		}
		if !found || first < i {
			i, j, found = first, k, true
		}
	}
	return i, j, found
}
