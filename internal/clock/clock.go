// Package clock decides the size of each simulated timestep and when a run
// ends. The timestep policy is a strategy: the physics never knows whether
// dt came from a constant or from the wall clock.
package clock

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/gravsim/internal/dynamo"
)

// Policy yields the next simulated timestep in seconds.
type Policy interface {
	Name() string
	Next() (float64, error)
}

// Fixed is the deterministic policy: the same dt every step, decoupled from
// wall-clock time. Use it for anything correctness-sensitive.
type Fixed struct {
	Dt float64
}

func (f Fixed) Name() string { return "fixed" }

func (f Fixed) Next() (float64, error) {
	if err := dynamo.CheckTimestep(f.Dt); err != nil {
		return 0, err
	}
	return f.Dt, nil
}

// DefaultPacing is the minimum wall-clock spacing between real-time steps.
const DefaultPacing = 10 * time.Millisecond

// RealTime scales elapsed wall-clock time by SpeedUp:
//
//	dt = (now - reference) · SpeedUp
//
// and moves the reference to now after every read. It is non-deterministic
// and exists only to pace live visualization.
type RealTime struct {
	// SpeedUp is simulated seconds per real second.
	SpeedUp float64
	// MinInterval bounds the pacing delay: Next sleeps until at least this
	// much wall-clock time has passed since the previous read.
	MinInterval time.Duration

	Now   func() time.Time
	Sleep func(time.Duration)

	reference time.Time
}

func NewRealTime(speedUp float64, minInterval time.Duration) *RealTime {
	return &RealTime{
		SpeedUp:     speedUp,
		MinInterval: minInterval,
		Now:         time.Now,
		Sleep:       time.Sleep,
	}
}

func (r *RealTime) Name() string { return "realtime" }

// Start sets the wall-clock reference. Next calls it implicitly on first use.
func (r *RealTime) Start() {
	r.reference = r.now()
}

func (r *RealTime) Next() (float64, error) {
	if !(r.SpeedUp > 0) || math.IsInf(r.SpeedUp, 0) {
		return 0, fmt.Errorf("realtime clock: speedup must be positive, got %g", r.SpeedUp)
	}
	if r.reference.IsZero() {
		r.Start()
	}

	now := r.now()
	if wait := r.minInterval() - now.Sub(r.reference); wait > 0 {
		r.sleep(wait)
		now = r.now()
	}

	dt := now.Sub(r.reference).Seconds() * r.SpeedUp
	r.reference = now

	if err := dynamo.CheckTimestep(dt); err != nil {
		return 0, err
	}
	return dt, nil
}

func (r *RealTime) minInterval() time.Duration {
	if r.MinInterval <= 0 {
		return time.Millisecond
	}
	return r.MinInterval
}

func (r *RealTime) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *RealTime) sleep(d time.Duration) {
	if r.Sleep == nil {
		time.Sleep(d)
		return
	}
	r.Sleep(d)
}

// Clock accumulates simulated time under a policy until Threshold.
type Clock struct {
	Policy    Policy
	Threshold float64

	elapsed float64
	steps   int
}

func New(policy Policy, threshold float64) *Clock {
	return &Clock{Policy: policy, Threshold: threshold}
}

// Next draws the next timestep from the policy without advancing.
func (c *Clock) Next() (float64, error) {
	return c.Policy.Next()
}

// Advance records a completed step of length dt.
func (c *Clock) Advance(dt float64) {
	c.elapsed += dt
	c.steps++
}

// Done reports whether simulated time has reached the threshold.
func (c *Clock) Done() bool {
	return c.elapsed >= c.Threshold
}

func (c *Clock) Elapsed() float64 { return c.elapsed }
func (c *Clock) Steps() int       { return c.steps }

// Remaining returns the simulated seconds left before the threshold.
func (c *Clock) Remaining() float64 {
	return math.Max(0, c.Threshold-c.elapsed)
}

func (c *Clock) Reset() {
	c.elapsed = 0
	c.steps = 0
	if rt, ok := c.Policy.(*RealTime); ok {
		rt.Start()
	}
}
