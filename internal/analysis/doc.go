// Package analysis provides post-run diagnostics for recorded trajectories.
//
//   - [PowerSpectrum] and [DominantPeriod]: orbital periods from a sampled
//     coordinate series
//   - [LyapunovExponent]: divergence rate of two nearby universes
//
// # Orbital periods
//
// A body on a bound orbit shows up as a peak in the spectrum of any of its
// coordinates relative to the center of mass:
//
//	xs := analysis.RelativeSeries(states, masses, body, analysis.AxisX)
//	period, ok := analysis.DominantPeriod(xs, interval)
package analysis
