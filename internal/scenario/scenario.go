// Package scenario generates initial conditions for common test systems.
// Every generator returns a universe in the barycentric frame.
package scenario

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	AU         = 1.495978707e11
	SolarMass  = 1.989e30
	EarthMass  = 5.972e24
	SolarRadii = 6.957e8
)

type Generator func(n int, seed int64) *dynamo.Universe

var generators = map[string]Generator{
	"kepler":        Kepler,
	"inner_planets": InnerPlanets,
	"ring":          Ring,
	"cluster":       Cluster,
}

// Generate builds the named scenario. n and seed are ignored by scenarios
// with a fixed layout.
func Generate(name string, n int, seed int64) (*dynamo.Universe, error) {
	gen, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s", name)
	}
	return gen(n, seed), nil
}

func List() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Kepler is a sun and an earth on a circular orbit of 1 AU.
func Kepler(_ int, _ int64) *dynamo.Universe {
	u := dynamo.NewUniverse(2)
	setBody(u, 0, r3.Vec{}, r3.Vec{}, SolarMass, hex("#ffcc33"), 20*SolarRadii)
	v := physics.CircularVelocity(physics.G, SolarMass+EarthMass, AU)
	setBody(u, 1, r3.Vec{X: AU}, r3.Vec{Y: v}, EarthMass, hex("#3377ff"), 5*SolarRadii)
	physics.ToBarycentricFrame(u)
	return u
}

type planet struct {
	name   string
	a      float64 // semi-major axis, AU
	mass   float64
	color  string
	phase0 float64
}

var inner = []planet{
	{"mercury", 0.387, 3.301e23, "#a6a6a6", 0.0},
	{"venus", 0.723, 4.867e24, "#e6c35c", 1.3},
	{"earth", 1.000, 5.972e24, "#3377ff", 2.9},
	{"mars", 1.524, 6.417e23, "#d9532b", 4.4},
}

// InnerPlanets is the sun with Mercury through Mars on coplanar circular
// orbits.
func InnerPlanets(_ int, _ int64) *dynamo.Universe {
	u := dynamo.NewUniverse(len(inner) + 1)
	setBody(u, 0, r3.Vec{}, r3.Vec{}, SolarMass, hex("#ffcc33"), 20*SolarRadii)
	for k, p := range inner {
		r := p.a * AU
		v := physics.CircularVelocity(physics.G, SolarMass, r)
		sin, cos := math.Sincos(p.phase0)
		setBody(u, k+1,
			r3.Vec{X: r * cos, Y: r * sin},
			r3.Vec{X: -v * sin, Y: v * cos},
			p.mass, hex(p.color), 4*SolarRadii)
	}
	physics.ToBarycentricFrame(u)
	return u
}

// Ring places n-1 light bodies on a slightly perturbed circular ring around
// a central star.
func Ring(n int, seed int64) *dynamo.Universe {
	if n < 2 {
		n = 32
	}
	rng := rand.New(rand.NewSource(seed))
	u := dynamo.NewUniverse(n)
	setBody(u, 0, r3.Vec{}, r3.Vec{}, SolarMass, hex("#ffcc33"), 20*SolarRadii)

	m := n - 1
	for k := 0; k < m; k++ {
		phi := 2 * math.Pi * float64(k) / float64(m)
		r := AU * (1 + 0.02*rng.NormFloat64())
		v := physics.CircularVelocity(physics.G, SolarMass, r)
		sin, cos := math.Sincos(phi)
		setBody(u, k+1,
			r3.Vec{X: r * cos, Y: r * sin, Z: 0.01 * AU * rng.NormFloat64()},
			r3.Vec{X: -v * sin, Y: v * cos},
			EarthMass*(0.5+rng.Float64()),
			colorful.Hsv(360*float64(k)/float64(m), 0.7, 0.95),
			2*SolarRadii)
	}
	physics.ToBarycentricFrame(u)
	return u
}

// Cluster is a cold Gaussian cloud of n comparable masses.
func Cluster(n int, seed int64) *dynamo.Universe {
	if n < 1 {
		n = 100
	}
	rng := rand.New(rand.NewSource(seed))
	u := dynamo.NewUniverse(n)
	for i := 0; i < n; i++ {
		pos := r3.Vec{
			X: rng.NormFloat64() * 5 * AU,
			Y: rng.NormFloat64() * 5 * AU,
			Z: rng.NormFloat64() * AU,
		}
		vel := r3.Vec{X: rng.NormFloat64() * 1e3, Y: rng.NormFloat64() * 1e3, Z: rng.NormFloat64() * 1e2}
		mass := SolarMass * (0.1 + rng.ExpFloat64()*0.3)
		hue := 40 + 200*math.Min(1, r3.Norm(pos)/(10*AU))
		setBody(u, i, pos, vel, mass, colorful.Hsv(hue, 0.6, 1), 5*SolarRadii)
	}
	physics.ToBarycentricFrame(u)
	return u
}

func setBody(u *dynamo.Universe, i int, pos, vel r3.Vec, mass float64, c colorful.Color, size float64) {
	u.Positions[i] = pos
	u.Velocities[i] = vel
	u.Masses[i] = mass
	u.Colors[i] = [3]float64{c.R, c.G, c.B}
	u.Sizes[i] = size
}

func hex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
