// internal/budget/budget.go
package budget

import (
	"time"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/diag"
)

// Phase names the budgeted stages of a wake cycle.
type Phase string

const (
	SensorRead    Phase = "sensor_read"
	RetainedFetch Phase = "retained_fetch"
	Display       Phase = "display"
	Publish       Phase = "publish"
)

// Tracker measures per-phase elapsed time against configured ceilings.
// A breach is informational: it is logged, counted, and reported to the
// caller, and never aborts the phase already in progress.
type Tracker struct {
	limits   map[Phase]time.Duration
	started  map[Phase]time.Time
	elapsed  map[Phase]time.Duration
	timeouts uint32

	log *diag.Logger
	now func() time.Time
}

// New creates a tracker with the given ceilings. A phase with no entry
// (or a zero limit) is unbudgeted and can never breach.
func New(limits map[Phase]time.Duration, log *diag.Logger) *Tracker {
	return &Tracker{
		limits:  limits,
		started: make(map[Phase]time.Time),
		elapsed: make(map[Phase]time.Duration),
		log:     log,
		now:     time.Now,
	}
}

// Start brackets the beginning of a phase.
func (t *Tracker) Start(p Phase) {
	t.started[p] = t.now()
}

// Stop closes the bracket and reports whether the ceiling was breached.
// Elapsed time accumulates across Start/Stop pairs within one cycle.
func (t *Tracker) Stop(p Phase) (elapsed time.Duration, breached bool) {
	start, ok := t.started[p]
	if !ok {
		return t.elapsed[p], false
	}
	delete(t.started, p)

	d := t.now().Sub(start)
	t.elapsed[p] += d
	elapsed = t.elapsed[p]

	limit := t.limits[p]
	if limit > 0 && elapsed > limit {
		t.timeouts++
		t.log.Warnf("Timeout: %s exceeded budget ms=%d budget=%d",
			p, elapsed.Milliseconds(), limit.Milliseconds())
		return elapsed, true
	}
	return elapsed, false
}

// Remaining is the budget left for a phase, for cooperative deadline loops.
// An unbudgeted phase reports a generous remainder so callers need no
// special case.
func (t *Tracker) Remaining(p Phase) time.Duration {
	limit := t.limits[p]
	if limit <= 0 {
		return time.Hour
	}
	used := t.elapsed[p]
	if start, ok := t.started[p]; ok {
		used += t.now().Sub(start)
	}
	if used >= limit {
		return 0
	}
	return limit - used
}

// Elapsed returns the accumulated time for a closed phase.
func (t *Tracker) Elapsed(p Phase) time.Duration {
	return t.elapsed[p]
}

// Timeouts is the count of budget breaches this cycle.
func (t *Tracker) Timeouts() uint32 {
	return t.timeouts
}
