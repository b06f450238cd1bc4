// Package telemetry measures highlighting work.
//
// Recorder annotates a single highlight call with its execution time and
// size counters. HighlightMetrics aggregates many calls for the CLI and can
// persist them to a local SQLite database. Nothing is reported externally.
package telemetry

import (
	"time"
)

// Clock returns the current time. A nil Clock means no timer is available.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time {
	return time.Now()
}

// Performance is attached to every highlight result.
type Performance struct {
	ExecutionTime float64 `json:"executionTime" yaml:"execution_time"` // milliseconds
	TermCount     int     `json:"termCount" yaml:"term_count"`
	ContentLength int     `json:"contentLength" yaml:"content_length"`
}

// Recorder times one unit of work. The zero value records no time.
type Recorder struct {
	clock Clock
	start time.Time
}

// StartRecorder reads the clock and returns a running recorder.
func StartRecorder(clock Clock) Recorder {
	r := Recorder{clock: clock}
	r.start = r.now()
	return r
}

// Finish stops the recorder. ExecutionTime is 0 when the clock is missing,
// panics, or goes backwards; Finish itself never fails.
func (r Recorder) Finish(termCount, contentLength int) Performance {
	p := Performance{TermCount: termCount, ContentLength: contentLength}
	if r.start.IsZero() {
		return p
	}
	end := r.now()
	if end.IsZero() {
		return p
	}
	if elapsed := end.Sub(r.start); elapsed > 0 {
		p.ExecutionTime = float64(elapsed.Nanoseconds()) / float64(time.Millisecond)
	}
	return p
}

func (r Recorder) now() (t time.Time) {
	if r.clock == nil {
		return time.Time{}
	}
	defer func() {
		if recover() != nil {
			t = time.Time{}
		}
	}()
	return r.clock()
}
