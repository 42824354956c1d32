package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/dynamo"
)

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// PowerSpectrum returns the magnitude of the real FFT of data with its mean
// removed. Entry k corresponds to k cycles over the whole series.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range data {
		centered[i] = v - mean
	}

	coeff := fourier.NewFFT(n).Coefficients(nil, centered)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantPeriod returns the period of the strongest non-constant component
// of a series sampled every interval seconds. ok is false when the series is
// too short or flat.
func DominantPeriod(data []float64, interval float64) (period float64, ok bool) {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || !(interval > 0) {
		return 0, false
	}

	peak, peakIdx := 0.0, 0
	total := 0.0
	for k := 1; k < len(ps); k++ {
		total += ps[k]
		if ps[k] > peak {
			peak, peakIdx = ps[k], k
		}
	}
	if peakIdx == 0 || peak <= 1e-12*total {
		return 0, false
	}

	return float64(len(data)) * interval / float64(peakIdx), true
}

// RelativeSeries extracts one coordinate of a body relative to the center of
// mass from every snapshot.
func RelativeSeries(states []dynamo.Snapshot, masses []float64, body int, axis Axis) []float64 {
	total := 0.0
	for _, m := range masses {
		total += m
	}

	out := make([]float64, len(states))
	for k, s := range states {
		var com r3.Vec
		for i, p := range s.Positions {
			com = r3.Add(com, r3.Scale(masses[i], p))
		}
		com = r3.Scale(1/total, com)

		rel := r3.Sub(s.Positions[body], com)
		switch axis {
		case AxisY:
			out[k] = rel.Y
		case AxisZ:
			out[k] = rel.Z
		default:
			out[k] = rel.X
		}
	}
	return out
}

// Uniform returns the longest prefix of states sampled at a constant
// interval, and that interval. The final snapshot of a run is often off the
// recording grid.
func Uniform(states []dynamo.Snapshot) ([]dynamo.Snapshot, float64) {
	if len(states) < 2 {
		return states, 0
	}
	interval := states[1].Time - states[0].Time
	for k := 2; k < len(states); k++ {
		gap := states[k].Time - states[k-1].Time
		if math.Abs(gap-interval) > 1e-9*math.Abs(interval) {
			return states[:k], interval
		}
	}
	return states, interval
}
