package clock

import (
	"errors"
	"testing"
	"time"

	"github.com/san-kum/gravsim/internal/dynamo"
)

type fakeWall struct {
	now   time.Time
	slept []time.Duration
}

func (f *fakeWall) Now() time.Time {
	return f.now
}

func (f *fakeWall) Sleep(d time.Duration) {
	f.slept = append(f.slept, d)
	f.now = f.now.Add(d)
}

func (f *fakeWall) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestFixedPolicy(t *testing.T) {
	dt, err := Fixed{Dt: 3600}.Next()
	if err != nil || dt != 3600 {
		t.Errorf("Next() = %g, %v", dt, err)
	}

	for _, bad := range []float64{0, -1} {
		_, err := Fixed{Dt: bad}.Next()
		if !errors.Is(err, dynamo.ErrInvalidTimestep) {
			t.Errorf("Fixed{%g}.Next() = %v, want InvalidTimestepError", bad, err)
		}
	}
}

func TestClockTermination(t *testing.T) {
	c := New(Fixed{Dt: 0.3}, 1.0)
	steps := 0
	for !c.Done() {
		dt, err := c.Next()
		if err != nil {
			t.Fatal(err)
		}
		c.Advance(dt)
		steps++
		if steps > 10 {
			t.Fatal("clock never terminated")
		}
	}
	// 0.3·4 = 1.2 is the first total >= 1.0; the last step is not clipped.
	if steps != 4 || c.Steps() != 4 {
		t.Errorf("expected 4 steps, got %d", steps)
	}
	if c.Elapsed() < 1.0 {
		t.Errorf("elapsed %g below threshold", c.Elapsed())
	}
	if c.Remaining() != 0 {
		t.Errorf("remaining = %g", c.Remaining())
	}

	c.Reset()
	if c.Elapsed() != 0 || c.Done() {
		t.Error("Reset did not rewind the clock")
	}
}

func TestRealTimePolicy(t *testing.T) {
	wall := &fakeWall{now: time.Unix(1000, 0)}
	rt := NewRealTime(86400, 10*time.Millisecond)
	rt.Now, rt.Sleep = wall.Now, wall.Sleep
	rt.Start()

	wall.advance(500 * time.Millisecond)
	dt, err := rt.Next()
	if err != nil {
		t.Fatal(err)
	}
	if dt != 0.5*86400 {
		t.Errorf("dt = %g, want %g", dt, 0.5*86400)
	}
	if len(wall.slept) != 0 {
		t.Errorf("slept %v although the interval had passed", wall.slept)
	}

	// Reference moved to the last read: an immediate second read has to
	// wait out the pacing interval instead of returning dt = 0.
	dt, err = rt.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(wall.slept) != 1 || wall.slept[0] != 10*time.Millisecond {
		t.Errorf("slept %v, want [10ms]", wall.slept)
	}
	if want := 0.01 * 86400; dt < want*0.999 || dt > want*1.001 {
		t.Errorf("dt = %g, want %g", dt, want)
	}
}

func TestRealTimeInvalidSpeedUp(t *testing.T) {
	rt := NewRealTime(0, time.Millisecond)
	if _, err := rt.Next(); err == nil {
		t.Error("expected error for zero speedup")
	}
}

func TestClockAccumulatesRealTimeSteps(t *testing.T) {
	wall := &fakeWall{now: time.Unix(0, 0)}
	rt := NewRealTime(10, time.Millisecond)
	rt.Now, rt.Sleep = wall.Now, wall.Sleep

	c := New(rt, 2.9)
	c.Reset()
	for i := 0; i < 3; i++ {
		wall.advance(100 * time.Millisecond)
		dt, err := c.Next()
		if err != nil {
			t.Fatal(err)
		}
		c.Advance(dt)
	}
	if got := c.Elapsed(); got < 2.999 || got > 3.001 {
		t.Errorf("elapsed = %g, want 3", got)
	}
	if !c.Done() {
		t.Error("expected clock to be done")
	}
}
