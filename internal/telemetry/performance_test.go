package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// stepClock returns base, then base+step, base+2*step, ...
func stepClock(base time.Time, step time.Duration) Clock {
	n := 0
	return func() time.Time {
		t := base.Add(time.Duration(n) * step)
		n++
		return t
	}
}

func TestRecorder_Finish(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := StartRecorder(stepClock(base, 1500*time.Microsecond))

	p := r.Finish(3, 120)

	assert.InDelta(t, 1.5, p.ExecutionTime, 1e-9)
	assert.Equal(t, 3, p.TermCount)
	assert.Equal(t, 120, p.ContentLength)
}

func TestRecorder_NoClock(t *testing.T) {
	p := StartRecorder(nil).Finish(2, 10)
	assert.Equal(t, Performance{TermCount: 2, ContentLength: 10}, p)

	var zero Recorder
	assert.Equal(t, 0.0, zero.Finish(0, 0).ExecutionTime)
}

func TestRecorder_PanickingClock(t *testing.T) {
	clock := func() time.Time { panic("timer unavailable") }

	assert.NotPanics(t, func() {
		p := StartRecorder(clock).Finish(1, 5)
		assert.Equal(t, 0.0, p.ExecutionTime)
		assert.Equal(t, 1, p.TermCount)
	})
}

func TestRecorder_PanicOnSecondRead(t *testing.T) {
	calls := 0
	clock := func() time.Time {
		calls++
		if calls > 1 {
			panic("gone")
		}
		return time.Now()
	}

	p := StartRecorder(clock).Finish(1, 1)
	assert.Equal(t, 0.0, p.ExecutionTime)
}

func TestRecorder_BackwardsClock(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := StartRecorder(stepClock(base, -time.Millisecond)).Finish(1, 1)
	assert.Equal(t, 0.0, p.ExecutionTime)
}

func TestSystemClock(t *testing.T) {
	p := StartRecorder(SystemClock).Finish(0, 0)
	assert.GreaterOrEqual(t, p.ExecutionTime, 0.0)
}
