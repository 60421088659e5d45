package reading

import "time"

// Timer accumulates the active time spent on the current image. Time counts
// only while the timer is running and not excluded; free-text entry toggles
// exclusion so typing a custom diagnosis never inflates the reading time.
//
// Timer is not safe for concurrent use; the Controller serializes access.
type Timer struct {
	now func() time.Time

	running  bool
	excluded bool

	// accumulated holds finished active segments; segStart marks the start
	// of the open segment while running and not excluded.
	accumulated   time.Duration
	segStart      time.Time
	excludedTotal time.Duration
	exclStart     time.Time
}

// NewTimer creates a stopped, zeroed timer using the wall clock.
func NewTimer() *Timer {
	return NewTimerWithClock(time.Now)
}

// NewTimerWithClock creates a timer with an injected clock for tests.
func NewTimerWithClock(now func() time.Time) *Timer {
	return &Timer{now: now}
}

// Start begins accumulation. No-op if already running.
func (t *Timer) Start() {
	if t.running {
		return
	}
	t.running = true
	if !t.excluded {
		t.segStart = t.now()
	}
}

// Pause stops accumulation. The exclusion flag is untouched, so a pause
// during free-text entry resumes into the still-excluded state.
func (t *Timer) Pause() {
	if !t.running {
		return
	}
	t.closeSegment()
	t.running = false
}

// Resume restarts accumulation after Pause.
func (t *Timer) Resume() {
	t.Start()
}

// ExcludeEnter stops accumulation for a free-text entry interval without
// altering the running flag.
func (t *Timer) ExcludeEnter() {
	if t.excluded {
		return
	}
	t.closeSegment()
	t.excluded = true
	t.exclStart = t.now()
}

// ExcludeExit ends the excluded interval, adds its duration to the excluded
// total, and resumes accumulation if the timer is running.
func (t *Timer) ExcludeExit() {
	if !t.excluded {
		return
	}
	t.excludedTotal += t.now().Sub(t.exclStart)
	t.excluded = false
	if t.running {
		t.segStart = t.now()
	}
}

// Elapsed returns the active time so far: wall time while running minus every
// excluded interval. This is the value submitted as time_taken_ms.
func (t *Timer) Elapsed() time.Duration {
	total := t.accumulated
	if t.running && !t.excluded {
		total += t.now().Sub(t.segStart)
	}
	return total
}

// Excluded returns the total duration of closed excluded intervals.
func (t *Timer) Excluded() time.Duration {
	return t.excludedTotal
}

// Running reports whether the timer is accumulating (or would be, once the
// current exclusion ends).
func (t *Timer) Running() bool {
	return t.running
}

// Reset zeroes elapsed and excluded totals and stops the timer. Called on
// every image transition.
func (t *Timer) Reset() {
	t.running = false
	t.excluded = false
	t.accumulated = 0
	t.excludedTotal = 0
}

// closeSegment folds the open active segment into the accumulated total.
func (t *Timer) closeSegment() {
	if t.running && !t.excluded {
		t.accumulated += t.now().Sub(t.segStart)
	}
}
