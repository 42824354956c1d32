// Package physics provides the Newtonian force evaluators and the
// conserved-quantity diagnostics for the simulator.
//
// Each evaluator implements [dynamo.ForceEvaluator]:
//
//   - [Direct]: exact O(N²) pairwise sum, one visit per unordered pair
//   - [ParallelDirect]: exact sum partitioned by body index across workers
//   - [BarnesHut]: O(N log N) octree approximation (gonum spatial/barneshut)
//
// All evaluators share a [Separation] policy that decides what happens when
// two bodies coincide: reject with [dynamo.SingularityError], soften the
// force with (r² + ε²), or clamp the separation to a minimum.
//
// # Conservation
//
// Energy and momentum diagnostics use the same separation policy as the
// force law, so softened runs report the softened potential:
//
//	e0 := physics.TotalEnergy(u, physics.G, sep)
//	p0 := physics.Momentum(u)
package physics
