// Package dynamo provides the core primitives of the gravitational simulator.
//
// The package defines the state container and the seams between the
// simulation stages:
//
//   - [Universe]: owned state of all bodies (positions, velocities,
//     accelerations, masses)
//   - [Snapshot]: read-only copy handed to observers after each step
//   - [ForceEvaluator]: writes accelerations from positions and masses
//   - [Integrator]: advances velocities and positions from accelerations
//   - [Observer] and [Metric]: per-step consumers of snapshots
//
// # Example
//
//	u, _ := universe.Load("4planets.csv")
//	s := sim.New(u, physics.NewDirect(physics.G, physics.Separation{}),
//	    integrators.NewSymplecticEuler(), clock.New(clock.Fixed{Dt: 3600}, 86400*687))
//	result, _ := s.Run(ctx)
//
// # Thread Safety
//
// A Universe is owned by exactly one Simulator and is NOT safe for concurrent
// mutation. Observers receive snapshots and must not retain references into
// the live universe.
package dynamo
